//go:build !linux
// +build !linux

package route

import (
	"github.com/lysShub/afpacket/helper"
	"github.com/pkg/errors"
)

func (e Entry) Name() (string, error) {
	return helper.IoctlGifname(int(e.Interface))
}

func GetTable() (Table, error) {
	return nil, errors.New("route table not implemented")
}

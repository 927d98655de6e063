package test

import (
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// PcapWrap dump every frame passing through the wrapped ReadWriter into a
// pcap file, for inspection with wireshark/tcpdump.
type PcapWrap struct {
	io.ReadWriter

	fh *os.File
	w  *pcapgo.Writer
}

func WrapPcap(child io.ReadWriter, file string, link layers.LinkType) (*PcapWrap, error) {
	fh, err := os.Create(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	w := pcapgo.NewWriter(fh)
	if err = w.WriteFileHeader(0xffff, link); err != nil {
		fh.Close()
		return nil, errors.WithStack(err)
	}

	return &PcapWrap{
		ReadWriter: child,
		fh:         fh,
		w:          w,
	}, nil
}

func (w *PcapWrap) Read(eth []byte) (n int, err error) {
	n, err = w.ReadWriter.Read(eth)
	if err != nil {
		return n, err
	}
	return n, w.writePacket(eth[:n])
}

func (w *PcapWrap) Write(eth []byte) (n int, err error) {
	n, err = w.ReadWriter.Write(eth)
	if err != nil {
		return n, err
	}
	return n, w.writePacket(eth[:n])
}

// Close close the pcap file, not the wrapped ReadWriter
func (w *PcapWrap) Close() error {
	return errors.WithStack(w.fh.Close())
}

func (w *PcapWrap) writePacket(eth []byte) error {
	err := w.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(eth),
		Length:        len(eth),
	}, eth)
	return errors.WithStack(err)
}

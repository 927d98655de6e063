package route

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
)

type Entry struct {
	// dest subnet
	Dest netip.Prefix

	// nextHop addr, as gateway
	Next netip.Addr

	// out interface index and preferred source address, Addr may be
	// invalid when the route carries no RTA_PREFSRC.
	Interface uint32
	Addr      netip.Addr

	Metric uint32
}

func (e Entry) Valid() bool {
	return e.Dest.IsValid() && e.Interface != 0
}

func (e Entry) String() string {
	p := newPrinter()
	e.string(p)
	return p.string()
}

func (e Entry) string(p *printer) {
	next := e.Next.String()
	if !e.Next.IsValid() {
		next = ""
	}

	var ifstr string
	if !e.Addr.IsValid() {
		ifstr = strconv.Itoa(int(e.Interface))
	} else {
		ifstr = fmt.Sprintf("%d(%s)", e.Interface, e.Addr.String())
	}

	p.append(
		e.Dest.String(), next, ifstr, strconv.Itoa(int(e.Metric)),
	)
}

type Table []Entry

// Sort order entries by prefix length desc then metric asc, which is
// the order Match expects.
func (t Table) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		bi, bj := t[i].Dest.Bits(), t[j].Dest.Bits()
		if bi != bj {
			return bi > bj
		}
		return t[i].Metric < t[j].Metric
	})
}

// Match route longest prefix match, return an invalid Entry if no route.
func (t Table) Match(dst netip.Addr) Entry {
	for _, e := range t {
		if e.Valid() && e.Dest.Contains(dst) {
			return e
		}
	}
	return Entry{}
}

func (t Table) String() string {
	p := newPrinter()
	for _, e := range t {
		e.string(p)
	}
	return p.string()
}

const printCols = 4

type printer struct {
	maxs  [printCols]int
	elems []string
}

func newPrinter() *printer {
	var p = &printer{
		elems: make([]string, 0, 16),
	}
	p.append(
		"dest", "next", "interface", "metric",
	)
	return p
}

func (p *printer) append(es ...string) {
	for _, e := range es {
		p.elems = append(p.elems, e)

		i := (len(p.elems) - 1) % printCols
		p.maxs[i] = max(p.maxs[i], len(e))
	}
}

func (p *printer) string() string {
	var b = &strings.Builder{}
	for i, e := range p.elems {
		if i%printCols == printCols-1 {
			b.WriteString(e)
			if i != len(p.elems)-1 {
				b.WriteByte('\n')
			}
			continue
		}
		fixWrite(b, e, p.maxs[i%printCols]+4)
	}
	return b.String()
}

func fixWrite(s *strings.Builder, str string, size int) {
	s.WriteString(str)
	s.WriteString(strings.Repeat(" ", size-len(str)))
}

package serialkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePort struct {
	writes  [][]byte
	closed  bool
}

func (f *fakePort) Write(b []byte) (int, error) {
	cp := append([]byte(nil), b...)
	f.writes = append(f.writes, cp)
	return len(b), nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func Test_Port_MarkBegin_WritesMarkByte(t *testing.T) {
	fp := &fakePort{}
	p := &Port{t: fp}

	p.MarkBegin(time.Now())

	assert.Equal(t, [][]byte{{1}}, fp.writes)
}

func Test_Port_MarkEnd_WritesSpaceByte(t *testing.T) {
	fp := &fakePort{}
	p := &Port{t: fp}

	p.MarkEnd(time.Now())

	assert.Equal(t, [][]byte{{0}}, fp.writes)
}

func Test_Port_Close_ClosesUnderlyingPort(t *testing.T) {
	fp := &fakePort{}
	p := &Port{t: fp}

	assert.NoError(t, p.Close())
	assert.True(t, fp.closed)
}

func Test_Port_AlternatingTransitions_WriteInOrder(t *testing.T) {
	fp := &fakePort{}
	p := &Port{t: fp}

	p.MarkBegin(time.Now())
	p.MarkEnd(time.Now())
	p.MarkBegin(time.Now())

	assert.Equal(t, [][]byte{{1}, {0}, {1}}, fp.writes)
}

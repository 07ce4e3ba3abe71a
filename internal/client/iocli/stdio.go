package iocli

import (
	"fmt"
	"io"
	"os"
)

// Stdio печатает в заданный writer, по умолчанию в os.Stdout
type Stdio struct {
	out io.Writer
}

// NewStdio returns an IO bound to os.Stdout
func NewStdio() IO {
	return &Stdio{out: os.Stdout}
}

// NewWriter returns an IO bound to w
func NewWriter(w io.Writer) IO {
	return &Stdio{out: w}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

package hostbus

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
)

// codedErr is a minimal ErrnoCarrier for tests.
type codedErr struct {
	msg  string
	code int
}

func (e *codedErr) Error() string { return e.msg }
func (e *codedErr) Errno() int    { return e.code }

func TestErrnoOf(t *testing.T) {
	carrier := &codedErr{msg: "no memory", code: -int(unix.ENOMEM)}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil is success",
			err:  nil,
			want: 0,
		},
		{
			name: "carrier supplies its code",
			err:  carrier,
			want: -int(unix.ENOMEM),
		},
		{
			name: "wrapped carrier",
			err:  fmt.Errorf("attach: %w", carrier),
			want: -int(unix.ENOMEM),
		},
		{
			name: "system errno passes through negated",
			err:  fmt.Errorf("configuring pin: %w", unix.EACCES),
			want: -int(unix.EACCES),
		},
		{
			name: "plain error degrades to EIO",
			err:  errors.New("something broke"),
			want: -int(unix.EIO),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrnoOf(tt.err); got != tt.want {
				t.Errorf("ErrnoOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

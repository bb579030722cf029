package testutil

import (
	"bufio"
	"errors"
	"io"
	"testing"
)

func TestMockReader(t *testing.T) {
	t.Run("serves lines", func(t *testing.T) {
		r := NewMockReader("alpha", "beta")
		scanner := bufio.NewScanner(r)

		var got []string
		for scanner.Scan() {
			got = append(got, scanner.Text())
		}

		AssertNoError(t, scanner.Err())
		AssertDiff(t, got, []string{"alpha", "beta"})
	})

	t.Run("fails after n reads", func(t *testing.T) {
		r := NewMockReader("alpha", "beta", "gamma")
		r.SetErrorAfter(1)

		buf := make([]byte, 64)
		n, err := r.Read(buf)
		AssertNoError(t, err)
		AssertEqual(t, string(buf[:n]), "alpha\n")

		_, err = r.Read(buf)
		AssertErrorIs(t, err, ErrSimulated)
		AssertEqual(t, r.ReadCount(), 2)
	})

	t.Run("always error", func(t *testing.T) {
		r := NewMockReader("alpha")
		r.SetAlwaysError(io.ErrClosedPipe)

		_, err := r.Read(make([]byte, 8))
		if !errors.Is(err, io.ErrClosedPipe) {
			t.Fatalf("got %v, want %v", err, io.ErrClosedPipe)
		}
	})

	t.Run("close", func(t *testing.T) {
		r := NewMockReader()
		AssertEqual(t, r.Closed(), false)
		AssertNoError(t, r.Close())
		AssertEqual(t, r.Closed(), true)

		_, err := r.Read(make([]byte, 8))
		AssertErrorIs(t, err, io.EOF)
	})
}

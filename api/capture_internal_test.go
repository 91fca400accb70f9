package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLimitedBuffer(t *testing.T) {
	buf := newLimitedBuffer(5)

	n, err := buf.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, buf.truncated)

	n, err = buf.Write([]byte("defgh"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n, "writes report the full length")
	assert.True(t, buf.truncated)
	assert.Equal(t, "abcde", buf.String())

	_, _ = buf.Write([]byte("more"))
	assert.Equal(t, "abcde", buf.String())
}

func TestLimitedBuffer_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(0, 64).Draw(t, "limit")
		chunks := rapid.SliceOf(rapid.SliceOfN(rapid.Byte(), 0, 32)).Draw(t, "chunks")

		buf := newLimitedBuffer(limit)
		var all []byte
		for _, c := range chunks {
			if n, _ := buf.Write(c); n != len(c) {
				t.Fatalf("short write: %d of %d", n, len(c))
			}
			all = append(all, c...)
		}

		want := all[:min(limit, len(all))]
		if got := buf.Bytes(); string(got) != string(want) {
			t.Fatalf("buffer holds %q, want %q", got, want)
		}
		if buf.truncated != (len(all) > limit) {
			t.Fatalf("truncated = %v with %d bytes and limit %d", buf.truncated, len(all), limit)
		}
	})
}

func TestExchangeLog_KeepsMostRecent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 10).Draw(t, "capacity")
		added := rapid.IntRange(0, 30).Draw(t, "added")
		n := rapid.IntRange(0, 15).Draw(t, "n")

		log := newExchangeLog(capacity)
		for i := range added {
			log.add(Exchange{StatusCode: i})
		}

		got := log.last(n)
		want := min(n, capacity, added)
		if len(got) != want {
			t.Fatalf("got %d exchanges, want %d", len(got), want)
		}
		for i, e := range got {
			if expected := added - want + i; e.StatusCode != expected {
				t.Fatalf("exchange %d has status %d, want %d", i, e.StatusCode, expected)
			}
		}
	})
}

func TestPrettyBody(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", prettyBody(`{"a":1}`, false))
	assert.Equal(t, "plain text", prettyBody(" plain text\n", false))
	assert.Equal(t, "{\"a\n... (truncated)", prettyBody(`{"a`, true))
}

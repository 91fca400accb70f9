package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/uuid"

	"github.com/networkteam/shopcheck/report"
)

const (
	// DefaultCaptureBodyLimit is the number of body bytes kept per captured request or response.
	DefaultCaptureBodyLimit = 64 * 1024
	// DefaultExchangeCapacity is the number of exchanges kept in memory per client.
	DefaultExchangeCapacity = 100
)

// Exchange is a captured request/response pair.
type Exchange struct {
	ID                    uuid.UUID
	Method                string
	URL                   string
	RequestTime           time.Time
	ResponseTime          time.Time
	StatusCode            int
	RequestHeaders        http.Header
	ResponseHeaders       http.Header
	RequestBody           string
	RequestBodyTruncated  bool
	ResponseBody          string
	ResponseBodyTruncated bool
	Error                 error
}

// Duration returns the time from sending the request until the response body was closed.
func (e Exchange) Duration() time.Duration {
	return e.ResponseTime.Sub(e.RequestTime)
}

// limitedBuffer keeps up to limit bytes and silently drops the rest.
type limitedBuffer struct {
	bytes.Buffer
	limit     int
	truncated bool
}

func newLimitedBuffer(limit int) *limitedBuffer {
	return &limitedBuffer{limit: limit}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.truncated {
		return len(p), nil
	}
	remaining := b.limit - b.Len()
	if remaining <= 0 {
		b.truncated = len(p) > 0
		return len(p), nil
	}
	if len(p) > remaining {
		b.Buffer.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

// exchangeLog is a bounded, thread-safe log of the most recent exchanges.
type exchangeLog struct {
	mu         sync.RWMutex
	buffer     []Exchange
	size       int
	writeIndex int
}

func newExchangeLog(capacity int) *exchangeLog {
	if capacity <= 0 {
		capacity = DefaultExchangeCapacity
	}
	return &exchangeLog{buffer: make([]Exchange, capacity)}
}

func (l *exchangeLog) add(e Exchange) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer[l.writeIndex%len(l.buffer)] = e
	l.writeIndex++
	if l.size < len(l.buffer) {
		l.size++
	}
}

// last returns up to n exchanges, oldest first.
func (l *exchangeLog) last(n int) []Exchange {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := min(max(n, 0), l.size)
	result := make([]Exchange, count)
	start := l.writeIndex - count
	for i := range count {
		result[i] = l.buffer[(start+i)%len(l.buffer)]
	}
	return result
}

// captureTransport records every round trip into the exchange log and, when the request context
// carries a report test, into the test's report entries.
type captureTransport struct {
	next      http.RoundTripper
	log       *exchangeLog
	bodyLimit int
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	exchange := Exchange{
		ID:             uuid.Must(uuid.NewV7()),
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestTime:    time.Now(),
		RequestHeaders: req.Header.Clone(),
	}
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			buf := newLimitedBuffer(t.bodyLimit)
			_, _ = io.Copy(buf, body)
			_ = body.Close()
			exchange.RequestBody = buf.String()
			exchange.RequestBodyTruncated = buf.truncated
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp == nil {
		exchange.ResponseTime = time.Now()
		exchange.Error = err
		t.record(req, exchange)
		return resp, err
	}

	exchange.StatusCode = resp.StatusCode
	exchange.ResponseHeaders = resp.Header.Clone()
	if resp.Body == nil {
		exchange.ResponseTime = time.Now()
		t.record(req, exchange)
		return resp, nil
	}

	resp.Body = &captureBody{
		ReadCloser: resp.Body,
		buf:        newLimitedBuffer(t.bodyLimit),
		done: func(buf *limitedBuffer) {
			exchange.ResponseTime = time.Now()
			exchange.ResponseBody = buf.String()
			exchange.ResponseBodyTruncated = buf.truncated
			t.record(req, exchange)
		},
	}
	return resp, nil
}

func (t *captureTransport) record(req *http.Request, exchange Exchange) {
	t.log.add(exchange)
	if test, ok := report.TestFromContext(req.Context()); ok {
		reportExchange(test, exchange)
	}
}

// captureBody copies what is read into buf and finishes the exchange on Close.
type captureBody struct {
	io.ReadCloser
	buf  *limitedBuffer
	done func(*limitedBuffer)
	once sync.Once
}

func (b *captureBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		_, _ = b.buf.Write(p[:n])
	}
	return n, err
}

func (b *captureBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() { b.done(b.buf) })
	return err
}

func reportExchange(test *report.Test, e Exchange) {
	title := fmt.Sprintf("%s %s", e.Method, e.URL)
	if e.Error != nil {
		test.Warning(fmt.Sprintf("%s failed after %s: %v", title, e.Duration().Round(time.Millisecond), e.Error))
		return
	}
	test.Info(fmt.Sprintf("%s -> %d (%s)", title, e.StatusCode, e.Duration().Round(time.Millisecond)))
	if e.RequestBody != "" {
		test.AddCode(report.StatusInfo, "Request body", prettyBody(e.RequestBody, e.RequestBodyTruncated), contentType(e.RequestHeaders))
	}
	if e.ResponseBody != "" {
		test.AddCode(report.StatusInfo, "Response body", prettyBody(e.ResponseBody, e.ResponseBodyTruncated), contentType(e.ResponseHeaders))
	}
}

func contentType(h http.Header) string {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// prettyBody indents JSON bodies and marks truncated ones.
func prettyBody(body string, truncated bool) string {
	if truncated {
		return body + "\n... (truncated)"
	}
	var out bytes.Buffer
	if json.Valid([]byte(body)) && json.Indent(&out, []byte(body), "", "  ") == nil {
		return out.String()
	}
	return strings.TrimSpace(body)
}

package core

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-fast/pkg/codec"
	"go.uber.org/zap"
)

// Reply builds and sends the single response of a request.
type Reply struct {
	Raw http.ResponseWriter

	req         *http.Request
	log         *zap.Logger
	code        int
	serializer  codec.Codec
	decorations *decorations

	sent        atomic.Bool
	wroteHeader bool
	done        chan struct{}
	doneOnce    sync.Once
}

func newReply(w http.ResponseWriter, r *http.Request, log *zap.Logger, c codec.Codec, d *decorations) *Reply {
	if log == nil {
		log = zap.NewNop()
	}
	if c == nil {
		c = codec.JSON
	}
	return &Reply{
		Raw:         w,
		req:         r,
		log:         log,
		code:        http.StatusOK,
		serializer:  c,
		decorations: d,
		done:        make(chan struct{}),
	}
}

// Code sets the status of the response.
func (rep *Reply) Code(status int) *Reply {
	rep.code = status
	return rep
}

func (rep *Reply) Header(key, value string) *Reply {
	rep.Raw.Header().Set(key, value)
	return rep
}

// Serializer replaces the codec used for non-byte payloads.
func (rep *Reply) Serializer(c codec.Codec) *Reply {
	if c != nil {
		rep.serializer = c
	}
	return rep
}

// Sent reports whether Send already went through.
func (rep *Reply) Sent() bool { return rep.sent.Load() }

func (rep *Reply) Decorator(name string) (any, bool) { return rep.decorations.get(name) }

// Send writes the response. Only the first call writes; later ones log and
// return ErrReplySent. A panic while serializing or writing becomes a 500
// when no header went out yet.
func (rep *Reply) Send(payload any) (err error) {
	if !rep.sent.CompareAndSwap(false, true) {
		rep.log.Warn("reply already sent", zap.Int("statusCode", rep.code))
		return ErrReplySent
	}
	defer rep.finish()
	defer rep.recoverSend(&err)

	if e, ok := payload.(error); ok {
		if isNil(e) {
			e = fmt.Errorf("nil %T sent as reply", e)
		}
		return rep.writeError(e)
	}

	h := rep.Raw.Header()
	switch v := payload.(type) {
	case nil:
		return rep.write(nil)
	case []byte:
		setDefault(h, "Content-Type", "application/octet-stream")
		return rep.write(v)
	case string:
		setDefault(h, "Content-Type", "text/plain; charset=utf-8")
		return rep.write([]byte(v))
	case io.Reader:
		setDefault(h, "Content-Type", "application/octet-stream")
		rep.wroteHeader = true
		rep.Raw.WriteHeader(rep.code)
		_, err := io.Copy(rep.Raw, v)
		if c, ok := v.(io.Closer); ok {
			_ = c.Close()
		}
		return err
	default:
		b, err := rep.serializer.Marshal(v)
		if err != nil {
			rep.code = http.StatusInternalServerError
			return rep.writeError(err)
		}
		setDefault(h, "Content-Type", rep.serializer.ContentType())
		return rep.write(b)
	}
}

// Serve lets a plain net/http handler write the response. It counts as the
// send, and a panic in h is handled as in Send.
func (rep *Reply) Serve(h http.Handler) (err error) {
	if !rep.sent.CompareAndSwap(false, true) {
		rep.log.Warn("reply already sent", zap.Int("statusCode", rep.code))
		return ErrReplySent
	}
	defer rep.finish()
	defer rep.recoverSend(&err)

	proto := 1
	if rep.req != nil {
		proto = rep.req.ProtoMajor
	}
	ww := chimd.NewWrapResponseWriter(rep.Raw, proto)
	defer func() { rep.wroteHeader = ww.Status() != 0 }()
	h.ServeHTTP(ww, rep.req)
	return nil
}

// recoverSend turns a panic inside an ongoing send into an error. The 500
// body is only written when the status line is still unsent.
func (rep *Reply) recoverSend(err *error) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		panic(rec)
	}
	perr := fmt.Errorf("reply panic: %v", rec)
	*err = perr
	if rep.wroteHeader {
		rep.log.Error("reply panicked after the header was written", zap.Error(perr))
		return
	}
	rep.code = http.StatusInternalServerError
	if werr := rep.writeError(perr); werr != nil {
		rep.log.Error("writing the error reply failed", zap.Error(werr))
	}
}

// WrapHandler adapts a net/http handler into a route handler.
func WrapHandler(h http.Handler) Handler {
	return func(req *Request, rep *Reply) {
		rep.req = req.Raw
		_ = rep.Serve(h)
	}
}

func (rep *Reply) write(b []byte) error {
	rep.Raw.Header().Set("Content-Length", strconv.Itoa(len(b)))
	rep.wroteHeader = true
	rep.Raw.WriteHeader(rep.code)
	if len(b) == 0 || rep.req != nil && rep.req.Method == http.MethodHead {
		return nil
	}
	_, err := rep.Raw.Write(b)
	return err
}

type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (rep *Reply) writeError(err error) error {
	def := http.StatusInternalServerError
	if rep.code >= 400 {
		def = rep.code
	}
	rep.code = statusOf(err, def)

	if rep.code >= 500 {
		rep.log.Error("request failed", zap.Int("statusCode", rep.code), zap.Error(err))
	} else {
		rep.log.Info("request rejected", zap.Int("statusCode", rep.code), zap.Error(err))
	}

	msg := err.Error()
	var he *HTTPError
	if errors.As(err, &he) {
		msg = he.Message
	}
	b, merr := codec.JSON.Marshal(errorBody{
		Error:      http.StatusText(rep.code),
		Message:    msg,
		StatusCode: rep.code,
	})
	if merr != nil {
		return merr
	}
	rep.Raw.Header().Set("Content-Type", codec.JSON.ContentType())
	return rep.write(b)
}

func isNil(err error) bool {
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (rep *Reply) finish() { rep.doneOnce.Do(func() { close(rep.done) }) }

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}

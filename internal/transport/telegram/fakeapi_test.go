package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	method string
	form   url.Values
}

// fakeAPI is a stand-in Bot API server that records every request.
type fakeAPI struct {
	srv    *httptest.Server
	nextID atomic.Int64

	mu    sync.Mutex
	calls []apiCall
	// fail returns a non-empty error body to reject a call.
	fail func(method string, form url.Values) (int, string)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.nextID.Store(500)
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) newBot(t *testing.T) *bot.Bot {
	t.Helper()
	b, err := bot.New("123456:test-token", bot.WithServerURL(f.srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return b
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	form := readForm(r)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	fail := f.fail
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail != nil {
		if code, body := fail(method, form); body != "" {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(body))
			return
		}
	}

	id := f.nextID.Add(1)
	chatID := form.Get("chat_id")
	if chatID == "" {
		chatID = "1"
	}

	var result string
	switch method {
	case "copyMessage":
		result = fmt.Sprintf(`{"message_id":%d}`, id)
	case "deleteMessage":
		result = `true`
	case "getChat":
		result = `{"id":-1009999,"type":"channel","title":"Resolved"}`
	default:
		result = fmt.Sprintf(`{"message_id":%d,"date":0,"chat":{"id":%s,"type":"channel"}}`, id, chatID)
	}
	_, _ = fmt.Fprintf(w, `{"ok":true,"result":%s}`, result)
}

func readForm(r *http.Request) url.Values {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		_ = dec.Decode(&body)
		form := url.Values{}
		for k, v := range body {
			form.Set(k, fmt.Sprint(v))
		}
		return form
	}
	_ = r.ParseMultipartForm(1 << 20)
	return r.Form
}

func (f *fakeAPI) callsOf(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

// lastReply returns the text of the most recent sendMessage call.
func (f *fakeAPI) lastReply(t *testing.T) string {
	t.Helper()
	sent := f.callsOf("sendMessage")
	require.NotEmpty(t, sent, "no reply sent")
	return sent[len(sent)-1].form.Get("text")
}

func apiError(code int, description string) string {
	return fmt.Sprintf(`{"ok":false,"error_code":%d,"description":%q}`, code, description)
}

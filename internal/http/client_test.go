package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fxhttp "github.com/sharecrm-io/fxcrm/internal/http"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) append(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.append("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.append("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.append("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.append("error", msg, fields) }

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("json request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/cgi/crm/v2/data/get", request.URL.Path)
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "fxcrm-go/1.0", request.Header.Get("User-Agent"))
			assert.Equal(t, "corp-1", request.Header.Get("X-Tenant"))

			body, err := io.ReadAll(request.Body)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"data":{"objectDataId":"9"}}`, string(body))

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{"errorCode": 0})
		}))
		defer server.Close()

		headers := make(http.Header)
		headers.Set("X-Tenant", "corp-1")

		client := fxhttp.NewClient()

		resp, err := client.Do(context.Background(), &fxcrm.Request{
			Method:  http.MethodPost,
			URL:     server.URL + "/cgi/crm/v2/data/get",
			Headers: headers,
			Body:    []byte(`{"data":{"objectDataId":"9"}}`),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"errorCode":0}`, string(resp.Body))
		assert.Positive(t, resp.Duration)
	})

	t.Run("server errors are returned once without retry", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("maintenance"))
		}))
		defer server.Close()

		client := fxhttp.NewClient()

		resp, err := client.Do(context.Background(), &fxcrm.Request{Method: http.MethodPost, URL: server.URL})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "maintenance", string(resp.Body))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("network error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		serverURL := server.URL
		server.Close()

		var seen *fxcrm.Response

		chain := fxcrm.NewInterceptorChain()
		chain.AddResponseInterceptor(func(_ context.Context, _ *fxcrm.Request, resp *fxcrm.Response) error {
			seen = resp

			return nil
		})

		client := fxhttp.NewClient(fxhttp.WithInterceptors(chain))

		_, err := client.Do(context.Background(), &fxcrm.Request{Method: http.MethodPost, URL: serverURL})
		require.Error(t, err)
		require.NotNil(t, seen)
		assert.Error(t, seen.Error)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := fxhttp.NewClient(fxhttp.WithTimeout(50 * time.Millisecond))

		_, err := client.Do(context.Background(), &fxcrm.Request{Method: http.MethodPost, URL: server.URL})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("request timeout overrides client timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := fxhttp.NewClient(fxhttp.WithTimeout(10 * time.Millisecond))

		resp, err := client.Do(context.Background(), &fxcrm.Request{
			Method:  http.MethodPost,
			URL:     server.URL,
			Timeout: 5 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestClient_Multipart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("signed"), 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.NoError(t, request.ParseMultipartForm(1<<20))
		assert.Equal(t, "AccountObj", request.FormValue("dataObjectApiName"))
		assert.JSONEq(t, `{"a":1}`, request.FormValue("data"))

		file, header, err := request.FormFile("attachment")
		if assert.NoError(t, err) {
			defer func() { _ = file.Close() }()

			content, _ := io.ReadAll(file)
			assert.Equal(t, "signed", string(content))
			assert.Equal(t, "contract.txt", header.Filename)
		}

		inline, inlineHeader, err := request.FormFile("logo")
		if assert.NoError(t, err) {
			defer func() { _ = inline.Close() }()

			content, _ := io.ReadAll(inline)
			assert.Equal(t, "png", string(content))
			assert.Equal(t, "logo.png", inlineHeader.Filename)
		}

		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")

	resp, err := fxhttp.NewClient().Do(context.Background(), &fxcrm.Request{
		Method:  http.MethodPost,
		URL:     server.URL,
		Headers: headers,
		Fields: map[string]string{
			"dataObjectApiName": "AccountObj",
			"data":              `{"a":1}`,
		},
		Files: []fxcrm.File{
			{Field: "attachment", Path: path},
			{Field: "logo", Filename: "logo.png", Content: []byte("png")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_MissingUpload(t *testing.T) {
	t.Parallel()

	_, err := fxhttp.NewClient().Do(context.Background(), &fxcrm.Request{
		Method: http.MethodPost,
		URL:    "http://127.0.0.1:1",
		Files:  []fxcrm.File{{Field: "file", Path: filepath.Join(t.TempDir(), "missing")}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading upload")
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "on", request.Header.Get("X-Intercepted"))
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var statuses []int

	chain := fxcrm.NewInterceptorChain()
	chain.AddRequestInterceptor(fxcrm.HeaderInterceptor(map[string]string{"X-Intercepted": "on"}))
	chain.AddResponseInterceptor(func(_ context.Context, _ *fxcrm.Request, resp *fxcrm.Response) error {
		statuses = append(statuses, resp.StatusCode)

		return nil
	})

	logger := &MockLogger{}
	client := fxhttp.NewClient(
		fxhttp.WithInterceptors(chain),
		fxhttp.WithLogger(logger),
		fxhttp.WithDebug(true),
		fxhttp.WithUserAgent("custom/2.0"),
	)

	_, err := client.Do(context.Background(), &fxcrm.Request{Method: http.MethodPost, URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, []int{http.StatusOK}, statuses)

	messages := make([]interface{}, 0, len(logger.logs))
	for _, entry := range logger.logs {
		messages = append(messages, entry["msg"])
	}

	assert.Contains(t, messages, "HTTP Request")
	assert.Contains(t, messages, "HTTP Response")
	assert.Contains(t, messages, "performing request")
}

func TestProxyFunc(t *testing.T) {
	t.Parallel()

	proxy, err := fxhttp.ProxyFunc(map[string]string{"https": "http://proxy.local:3128"})
	require.NoError(t, err)

	secure, err := proxy(&http.Request{URL: &url.URL{Scheme: "https", Host: "open.fxiaoke.com"}})
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", secure.Host)

	plain, err := proxy(&http.Request{URL: &url.URL{Scheme: "http", Host: "open.fxiaoke.com"}})
	require.NoError(t, err)
	assert.Nil(t, plain)

	_, err = fxhttp.ProxyFunc(map[string]string{"https": "://bad"})
	require.Error(t, err)
}

func TestClient_WithProxy(t *testing.T) {
	t.Parallel()

	var proxied atomic.Int32

	proxyServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		proxied.Add(1)
		assert.Equal(t, "crm.invalid", request.URL.Host)
		writer.WriteHeader(http.StatusOK)
	}))
	defer proxyServer.Close()

	proxy, err := fxhttp.ProxyFunc(map[string]string{"http": proxyServer.URL})
	require.NoError(t, err)

	client := fxhttp.NewClient(fxhttp.WithProxy(proxy))

	resp, err := client.Do(context.Background(), &fxcrm.Request{Method: http.MethodPost, URL: "http://crm.invalid/cgi"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), proxied.Load())
}

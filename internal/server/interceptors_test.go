package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const listMethod = "/agl.v1.Schedule/ListBuildings"

// stubHandler is a no-op gRPC handler used in interceptor tests.
func stubHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthInterceptor(t *testing.T) {
	for _, tc := range []struct {
		name   string
		token  string
		method string
		md     metadata.MD
		want   codes.Code
	}{
		{"disabled", "", listMethod, nil, codes.OK},
		{"health exempt", "secret", "/grpc.health.v1.Health/Check", nil, codes.OK},
		{"missing metadata", "secret", listMethod, nil, codes.Unauthenticated},
		{"missing header", "secret", listMethod, metadata.Pairs("other", "value"), codes.Unauthenticated},
		{"wrong token", "secret", listMethod, metadata.Pairs("authorization", "Bearer wrong"), codes.Unauthenticated},
		{"invalid scheme", "secret", listMethod, metadata.Pairs("authorization", "Basic secret"), codes.Unauthenticated},
		{"correct token", "secret", listMethod, metadata.Pairs("authorization", "Bearer secret"), codes.OK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			if tc.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tc.md)
			}
			resp, err := AuthInterceptor(tc.token)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tc.method}, stubHandler)
			if got := status.Code(err); got != tc.want {
				t.Fatalf("code = %v, want %v (err %v)", got, tc.want, err)
			}
			if tc.want == codes.OK && resp != "ok" {
				t.Fatalf("expected 'ok', got %v", resp)
			}
		})
	}
}

type stubStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s stubStream) Context() context.Context { return s.ctx }

func TestStreamAuthInterceptor(t *testing.T) {
	interceptor := StreamAuthInterceptor("secret")
	called := false
	handler := func(any, grpc.ServerStream) error { called = true; return nil }

	info := &grpc.StreamServerInfo{FullMethod: "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"}
	err := interceptor(nil, stubStream{ctx: context.Background()}, info, handler)
	if status.Code(err) != codes.Unauthenticated || called {
		t.Fatalf("unauthenticated stream: err = %v, called = %v", err, called)
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer secret"))
	if err := interceptor(nil, stubStream{ctx: ctx}, info, handler); err != nil || !called {
		t.Fatalf("authenticated stream: err = %v, called = %v", err, called)
	}

	called = false
	watch := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}
	if err := interceptor(nil, stubStream{ctx: context.Background()}, watch, handler); err != nil || !called {
		t.Fatalf("health watch: err = %v, called = %v", err, called)
	}
}

func TestLoggingInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}
	interceptor := LoggingInterceptor(discardLogger())

	resp, err := interceptor(context.Background(), nil, info, stubHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("expected resp=%q err=nil, got resp=%v err=%v", "ok", resp, err)
	}

	boom := errors.New("boom")
	_, err = interceptor(context.Background(), nil, info,
		func(context.Context, any) (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}
	interceptor := RecoveryInterceptor(discardLogger())

	resp, err := interceptor(context.Background(), nil, info, stubHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("expected resp=%q err=nil, got resp=%v err=%v", "ok", resp, err)
	}

	_, err = interceptor(context.Background(), nil, info,
		func(context.Context, any) (any, error) { panic("test panic") })
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for _, tc := range []struct {
		name  string
		token string
		path  string
		auth  string
		want  int
	}{
		{"no header", "secret", "/v1/buildings", "", http.StatusUnauthorized},
		{"wrong token", "secret", "/v1/buildings", "Bearer wrong", http.StatusUnauthorized},
		{"invalid scheme", "secret", "/v1/buildings", "Basic secret", http.StatusUnauthorized},
		{"correct token", "secret", "/v1/buildings", "Bearer secret", http.StatusOK},
		{"health exempt", "secret", "/v1/health", "", http.StatusOK},
		{"disabled", "", "/v1/buildings", "", http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(tc.token, ok).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d; body: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLoggingInterceptor_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	interceptor := LoggingInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: listMethod}

	if _, err := interceptor(context.Background(), nil, info, stubHandler); err != nil {
		t.Fatal(err)
	}
	_, _ = interceptor(context.Background(), nil, info,
		func(context.Context, any) (any, error) { return nil, status.Error(codes.NotFound, "nope") })

	out := buf.String()
	for _, want := range []string{
		`level=DEBUG msg="rpc served" method=` + listMethod + ` code=OK`,
		`level=ERROR msg="rpc failed" method=` + listMethod + ` code=NotFound`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestBearerMatches(t *testing.T) {
	for _, tc := range []struct {
		header string
		ok     bool
		reason string
	}{
		{"", false, "missing authorization header"},
		{"Token secret", false, "invalid authorization scheme"},
		{"Bearer other", false, "invalid token"},
		{"Bearer secret", true, ""},
	} {
		ok, reason := bearerMatches(tc.header, "secret")
		if ok != tc.ok || reason != tc.reason {
			t.Errorf("bearerMatches(%q) = %v, %q; want %v, %q", tc.header, ok, reason, tc.ok, tc.reason)
		}
	}
}

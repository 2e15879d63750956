package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestNewEndpointValidator(t *testing.T) {
	v := NewEndpointValidator()
	if v.AllowLocal {
		t.Error("Expected AllowLocal to be false by default")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}

	p := NewPermissiveEndpointValidator()
	if !p.AllowLocal {
		t.Error("Expected AllowLocal to be true for permissive validator")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewEndpointValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{
			name:     "default endpoint",
			input:    "https://jsonplaceholder.typicode.com/posts",
			expected: "https://jsonplaceholder.typicode.com/posts",
		},
		{
			name:     "missing scheme gets https",
			input:    "jsonplaceholder.typicode.com/posts",
			expected: "https://jsonplaceholder.typicode.com/posts",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  https://api.blog.dev/posts  ",
			expected: "https://api.blog.dev/posts",
		},
		{
			name:     "host lowercased",
			input:    "HTTPS://API.Blog.dev/posts",
			expected: "https://api.blog.dev/posts",
		},
		{
			name:     "pagination parameters dropped",
			input:    "https://api.blog.dev/posts?_start=20&_limit=5&tag=go",
			expected: "https://api.blog.dev/posts?tag=go",
		},
		{
			name:     "fragment dropped",
			input:    "https://api.blog.dev/posts#top",
			expected: "https://api.blog.dev/posts",
		},
		{name: "empty", input: "", shouldError: true},
		{name: "whitespace only", input: "   ", shouldError: true},
		{name: "ftp scheme", input: "ftp://api.blog.dev/posts", shouldError: true},
		{name: "script characters", input: "https://api.blog.dev/<script>", shouldError: true},
		{name: "path traversal", input: "https://api.blog.dev/../etc/passwd", shouldError: true},
		{name: "credentials", input: "https://user:pw@api.blog.dev/posts", shouldError: true},
		{name: "localhost", input: "http://localhost:3000/posts", shouldError: true},
		{name: "loopback ip", input: "http://127.0.0.1/posts", shouldError: true},
		{name: "private ip", input: "http://192.168.1.10/posts", shouldError: true},
		{name: "ipv6 loopback", input: "http://[::1]:8080/posts", shouldError: true},
		{name: "unroutable", input: "http://0.0.0.0/posts", shouldError: true},
		{name: "too long", input: "https://api.blog.dev/" + strings.Repeat("a", 2048), shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateAndNormalize(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Errorf("ValidateAndNormalize(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAndNormalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ValidateAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateAndNormalize_Permissive(t *testing.T) {
	v := NewPermissiveEndpointValidator()

	for _, input := range []string{
		"http://localhost:3000/posts",
		"http://127.0.0.1:8080/posts",
		"http://10.0.0.5/posts",
		"http://api.localhost/posts",
	} {
		if _, err := v.ValidateAndNormalize(input); err != nil {
			t.Errorf("ValidateAndNormalize(%q) unexpected error: %v", input, err)
		}
	}

	if _, err := v.ValidateAndNormalize("http://0.0.0.0/posts"); err == nil {
		t.Error("expected 0.0.0.0 to be rejected even when local endpoints are allowed")
	}
}

func TestLocalEndpointError(t *testing.T) {
	_, err := NewEndpointValidator().ValidateAndNormalize("http://localhost/posts")
	if !errors.Is(err, ErrLocalEndpoint) {
		t.Errorf("error = %v, want ErrLocalEndpoint", err)
	}

	_, err = NewEndpointValidator().ValidateAndNormalize("")
	if !errors.Is(err, ErrEmptyEndpoint) {
		t.Errorf("error = %v, want ErrEmptyEndpoint", err)
	}
}

func TestIsLocalHost(t *testing.T) {
	tests := map[string]bool{
		"localhost":      true,
		"LOCALHOST":      true,
		"app.localhost":  true,
		"127.0.0.1":      true,
		"127.1.2.3":      true,
		"::1":            true,
		"api.blog.dev":   false,
		"10.0.0.1":       false,
		"localhost.blog": false,
	}
	for host, want := range tests {
		if got := IsLocalHost(host); got != want {
			t.Errorf("IsLocalHost(%q) = %v, want %v", host, got, want)
		}
	}
}

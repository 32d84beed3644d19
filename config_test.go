package main

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{port: 8080}, false},
		{"port too low", Config{port: 0}, true},
		{"port too high", Config{port: 70000}, true},
		{"tls cert without key", Config{port: 8080, tlsCert: "cert.pem"}, true},
		{"tls key without cert", Config{port: 8080, tlsKey: "key.pem"}, true},
		{"tls pair", Config{port: 8080, tlsCert: "cert.pem", tlsKey: "key.pem"}, false},
		{"negative session timeout", Config{port: 8080, sessionTimeout: -time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := Config{}
	if cfg.scheme() != "http" {
		t.Errorf("expected http without tls, got %q", cfg.scheme())
	}

	cfg = Config{tlsCert: "cert.pem", tlsKey: "key.pem"}
	if cfg.scheme() != "https" {
		t.Errorf("expected https with tls pair, got %q", cfg.scheme())
	}
}

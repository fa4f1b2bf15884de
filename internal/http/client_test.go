package http

import (
	nethttp "net/http"
	"testing"

	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/constants"
)

func TestCreateTransferClient(t *testing.T) {
	client, err := CreateTransferClient(&config.Config{ProxyMode: "no-proxy"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Timeout != constants.UploadTimeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, constants.UploadTimeout)
	}
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if !tr.DisableCompression {
		t.Error("compression should be disabled for file bodies")
	}
}

func TestCreateTransferClient_ProxyDisablesHTTP2(t *testing.T) {
	client, err := CreateTransferClient(&config.Config{ProxyMode: "basic", ProxyHost: "proxy.corp"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := client.Transport.(*nethttp.Transport)
	if tr.ForceAttemptHTTP2 {
		t.Error("HTTP/2 should be off behind a proxy")
	}
	if tr.TLSNextProto == nil {
		t.Error("TLSNextProto should be a non-nil empty map to disable HTTP/2")
	}
}

package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/logging"
)

// CreateTransferClient creates the HTTP client used for file bodies (multipart
// uploads and downloads). It shares proxy handling with ConfigureHTTPClient but
// allows a request to run for constants.UploadTimeout.
//
// HTTP/2 is attempted unless a proxy is active or DISABLE_HTTP2=true is set;
// proxies often break HTTP/2 streams mid-transfer.
func CreateTransferClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	baseClient, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	baseClient.Timeout = constants.UploadTimeout

	// NTLM mode wraps the transport in a negotiator, leave it as is
	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		return baseClient, nil
	}

	tr.DisableCompression = true
	if proxyActive(cfg) || os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		return baseClient, nil
	}

	tr.ForceAttemptHTTP2 = true
	if err := http2.ConfigureTransport(tr); err != nil && logger != nil {
		logger.Debug().Err(err).Msg("HTTP/2 not configured, using HTTP/1.1")
	}
	return baseClient, nil
}

func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}

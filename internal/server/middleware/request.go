package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RequestData holds the fields extracted from an incoming request for quota
// decisions and usage recording.
type RequestData struct {
	Path           string
	Headers        string
	Body           string
	ProductName    string
	ProductModule  string
	ProductFeature string
	ProductTenant  string
}

type productFields struct {
	ProductName    string `json:"product_name"`
	ProductModule  string `json:"product_module"`
	ProductFeature string `json:"product_feature"`
	ProductTenant  string `json:"product_tenant"`
}

// ExtractRequestData reads path, headers, body and product fields from r.
// POST requests carry the product fields in the JSON body; GET requests carry
// them as query parameters. The body is restored so downstream handlers can
// read it again.
func ExtractRequestData(r *http.Request) (RequestData, error) {
	data := RequestData{Path: r.URL.Path}

	headers, err := encodeHeaders(r.Header)
	if err != nil {
		return data, err
	}
	data.Headers = headers

	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return data, fmt.Errorf("read request body: %w", err)
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		data.Body = string(body)
	}

	switch r.Method {
	case http.MethodPost:
		if data.Body == "" {
			break
		}
		var fields productFields
		if err := json.Unmarshal([]byte(data.Body), &fields); err != nil {
			return data, fmt.Errorf("decode request body: %w", err)
		}
		data.ProductName = fields.ProductName
		data.ProductModule = fields.ProductModule
		data.ProductFeature = fields.ProductFeature
		data.ProductTenant = fields.ProductTenant
	case http.MethodGet:
		query := r.URL.Query()
		data.ProductName = query.Get("product_name")
		data.ProductModule = query.Get("product_module")
		data.ProductFeature = query.Get("product_feature")
		data.ProductTenant = query.Get("product_tenant")
	}

	return data, nil
}

// encodeHeaders snapshots headers as JSON for the usage log.
func encodeHeaders(h http.Header) (string, error) {
	encoded, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode headers: %w", err)
	}
	return string(encoded), nil
}

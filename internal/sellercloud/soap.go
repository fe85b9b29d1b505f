package sellercloud

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/dunglas/httpsfv"

	"sellercloud-proxy/internal/model"
)

// SOAP actions exposed by the proxy.
const (
	ActionAuthenticate              = "http://api.sellercloud.com/Authenticate"
	ActionGetProductDetailsBySerial = "http://api.sellercloud.com/GetProductDetailsBySerial"
)

const soapContentType = "text/xml; charset=utf-8"

// SOAP posts envelope to the SOAP service under action and returns the
// response whatever its status. No credential is attached.
func (c *Client) SOAP(ctx context.Context, action string, envelope []byte) (*model.RawResponse, error) {
	header, err := soapActionHeader(action)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.soapURL, bytes.NewReader(envelope))
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("creating SOAP request: %w", err))
	}
	req.Header.Set("Content-Type", soapContentType)
	req.Header.Set("SOAPAction", header)
	req.Header.Set("User-Agent", userAgent)

	return c.do(req)
}

// soapActionHeader renders action as a quoted string, the form SOAP 1.1
// servers expect in the SOAPAction header.
func soapActionHeader(action string) (string, error) {
	v, err := httpsfv.Marshal(httpsfv.NewItem(action))
	if err != nil {
		return "", fmt.Errorf("encoding SOAPAction %q: %w", action, err)
	}
	return v, nil
}

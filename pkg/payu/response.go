package payu

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// gatewayResponse is the normalized view of a gateway reply, regardless of
// whether it arrived as JSON or XML. Downstream code only ever sees this.
type gatewayResponse struct {
	Code          string
	Error         string
	State         string
	TransactionID string
	OperationDate string
	ResponseCode  string
}

type jsonResponse struct {
	Code                string `json:"code"`
	Error               string `json:"error"`
	TransactionResponse *struct {
		State         string          `json:"state"`
		TransactionID string          `json:"transactionId"`
		OperationDate json.RawMessage `json:"operationDate"`
		ResponseCode  string          `json:"responseCode"`
	} `json:"transactionResponse"`
}

type xmlResponse struct {
	XMLName             xml.Name `xml:"paymentResponse"`
	Code                string   `xml:"code"`
	Error               string   `xml:"error"`
	TransactionResponse struct {
		State         string `xml:"state"`
		TransactionID string `xml:"transactionId"`
		OperationDate string `xml:"operationDate"`
		ResponseCode  string `xml:"responseCode"`
	} `xml:"transactionResponse"`
}

// parseResponse sniffs the wire format by the first non-space byte and
// produces the normalized response in a single step.
func parseResponse(body []byte) (*gatewayResponse, error) {

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty gateway response")
	}

	switch trimmed[0] {
	case '{':
		return parseJSONResponse(trimmed)
	case '<':
		return parseXMLResponse(trimmed)
	default:
		return nil, fmt.Errorf("unrecognized gateway response format (leading byte %q)", trimmed[0])
	}
}

func parseJSONResponse(body []byte) (*gatewayResponse, error) {

	var raw jsonResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed JSON gateway response: %w", err)
	}

	resp := &gatewayResponse{
		Code:  raw.Code,
		Error: raw.Error,
	}

	if raw.TransactionResponse != nil {
		resp.State = raw.TransactionResponse.State
		resp.TransactionID = raw.TransactionResponse.TransactionID
		resp.ResponseCode = raw.TransactionResponse.ResponseCode
		resp.OperationDate = normalizeOperationDate(raw.TransactionResponse.OperationDate)
	}

	return resp, nil
}

func parseXMLResponse(body []byte) (*gatewayResponse, error) {

	var raw xmlResponse
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed XML gateway response: %w", err)
	}

	return &gatewayResponse{
		Code:          raw.Code,
		Error:         raw.Error,
		State:         raw.TransactionResponse.State,
		TransactionID: raw.TransactionResponse.TransactionID,
		OperationDate: normalizeXMLOperationDate(raw.TransactionResponse.OperationDate),
		ResponseCode:  raw.TransactionResponse.ResponseCode,
	}, nil
}

// normalizeOperationDate accepts either an epoch-milliseconds number or an
// ISO-8601 string and always yields RFC 3339 UTC.
func normalizeOperationDate(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis).UTC().Format(time.RFC3339)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return normalizeXMLOperationDate(str)
	}

	return ""
}

func normalizeXMLOperationDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC().Format(time.RFC3339)
	}

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC().Format(time.RFC3339)
	}

	return value
}

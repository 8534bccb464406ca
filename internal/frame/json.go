package frame

import "encoding/json"

// EncodeBody turns a structured value into wire bytes for the given
// content-type. Only application/json triggers encoding (§4.1, §9);
// strings and []byte pass through unchanged for any content-type. Any
// other body under another content-type is converted to its String()
// form, or to JSON text when it has no String method (nil becomes an
// empty body).
func EncodeBody(contentType string, v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	if contentType == ContentTypeJSON {
		return json.Marshal(v)
	}
	// Neither string nor []byte, and not JSON: best-effort string form.
	return []byte(toString(v)), nil
}

// DecodeBody parses wire bytes into a structured value when
// content-type is application/json; otherwise the raw bytes are
// returned unchanged.
func DecodeBody(contentType string, body []byte) (interface{}, error) {
	if contentType != ContentTypeJSON {
		return body, nil
	}
	var v interface{}
	if len(body) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

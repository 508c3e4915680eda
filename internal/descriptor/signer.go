package descriptor

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// Signer computes the request signature appended to every API call.
type Signer interface {
	Sign(params url.Values) (string, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(params url.Values) (string, error)

func (f SignerFunc) Sign(params url.Values) (string, error) { return f(params) }

// HMACSigner signs the lowercased, key-sorted query string with HMAC-SHA1 and
// base64 encodes the digest.
type HMACSigner struct {
	Secret string
}

func (s HMACSigner) Sign(params url.Values) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return strings.ToLower(keys[i]) < strings.ToLower(keys[j]) })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, k+"="+strings.ReplaceAll(url.QueryEscape(v), "+", "%20"))
		}
	}
	mac := hmac.New(sha1.New, []byte(s.Secret))
	mac.Write([]byte(strings.ToLower(strings.Join(parts, "&"))))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Package cdn builds asset URLs against the platform's CDN host and wraps
// raw image bytes as base64 data URIs for endpoints that accept inline
// images (Identify's presence game icon, a server's uploaded icon, ...).
package cdn

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/gorilla/schema"

	"github.com/beacon-chat/beacon-go/resources"
)

const baseURL = "https://cdn.example-platform.invalid"

// sizeEncoder renders optional sizing/format query params the same way the
// REST core renders endpoint query strings.
var sizeEncoder = schema.NewEncoder()

func init() {
	sizeEncoder.SetAliasTag("url")
}

// ImageFormat is one of the formats every documented CDN asset endpoint
// accepts.
type ImageFormat string

const (
	FormatPNG   ImageFormat = "png"
	FormatJPEG  ImageFormat = "jpg"
	FormatWebP  ImageFormat = "webp"
	FormatGIF   ImageFormat = "gif"
)

// Options controls the optional size/format query string appended to an
// asset URL.
type Options struct {
	Size   int         `url:"size,omitempty"`
	Format ImageFormat `url:"-"`
}

func (o Options) queryString() (string, error) {
	params := url.Values{}
	if err := sizeEncoder.Encode(o, params); err != nil {
		return "", fmt.Errorf("cdn: encode options: %w", err)
	}

	encoded := params.Encode()
	if encoded == "" {
		return "", nil
	}

	return "?" + encoded, nil
}

func (o Options) format(fallback ImageFormat) ImageFormat {
	if o.Format != "" {
		return o.Format
	}

	return fallback
}

// ServerIcon builds the URL for a server's icon asset.
func ServerIcon(serverID resources.Snowflake, hash string, opts Options) (string, error) {
	return assetURL("icons", serverID.String(), hash, opts.format(FormatPNG), opts)
}

// UserAvatar builds the URL for a user's avatar asset.
func UserAvatar(userID resources.Snowflake, hash string, opts Options) (string, error) {
	return assetURL("avatars", userID.String(), hash, opts.format(FormatPNG), opts)
}

// Emoji builds the URL for a custom emoji asset. Emoji assets have no
// parent-ID path segment.
func Emoji(emojiID resources.Snowflake, opts Options) (string, error) {
	qs, err := opts.queryString()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/emojis/%s.%s%s", baseURL, emojiID, opts.format(FormatPNG), qs), nil
}

func assetURL(category, parentID, hash string, format ImageFormat, opts Options) (string, error) {
	qs, err := opts.queryString()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s/%s.%s%s", baseURL, category, parentID, hash, format, qs), nil
}

// DataURI wraps raw image bytes as a base64 data URI, for endpoints that
// accept an inline image instead of a CDN reference (e.g. an Identify
// presence asset upload).
func DataURI(mimeType string, raw []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw))
}

package fetch

import (
	"bytes"
	"context"
	"dataset_downloader/greenhttp"
	"dataset_downloader/internal/utils"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"
	"github.com/vfaronov/httpheader"
)

// ErrUnexpectedContent is returned when the service answers with an HTML page
// (quota notice, virus-scan interstitial, sign-in wall) instead of the file.
var ErrUnexpectedContent = errors.New("server returned a web page instead of the file")

// sniffLen matches what http.DetectContentType looks at.
const sniffLen = 512

// HTTPTransfer downloads a Drive file directly over HTTP using the public
// export link. It is an alternative to the external helper for hosts where
// the helper cannot be installed.
type HTTPTransfer struct {
	client  *greenhttp.HTTPClient
	fs      afero.Fs
	baseURL string
}

// NewHTTPTransfer creates a direct-download transfer writing to fs.
func NewHTTPTransfer(client *greenhttp.HTTPClient, fs afero.Fs) *HTTPTransfer {
	if client == nil {
		client = greenhttp.NewHTTPClient()
	}
	return &HTTPTransfer{client: client, fs: fs, baseURL: driveBaseURL}
}

// WithBaseURL points the transfer at a different endpoint.
func (t *HTTPTransfer) WithBaseURL(base string) *HTTPTransfer {
	t.baseURL = base
	return t
}

func (t *HTTPTransfer) Download(ctx context.Context, ref, outputPath string) error {
	link := directDownloadURL(t.baseURL, ref)

	resp, header, err := t.open(ctx, link)
	if err != nil {
		return err
	}
	defer func() { resp.Body.Close() }()

	if isWebPage(header) {
		// Large files get a virus-scan warning page that links to the real download.
		next, ok := confirmLink(resp, header, t.baseURL, ref)
		if !ok {
			return ErrUnexpectedContent
		}
		utils.Debug("Following download confirmation for %s", ref)

		confirmed, confirmedHeader, err := t.open(ctx, next)
		if err != nil {
			return err
		}
		resp.Body.Close()
		resp, header = confirmed, confirmedHeader
		if isWebPage(header) {
			return ErrUnexpectedContent
		}
	}

	if _, name, _ := httpheader.ContentDisposition(resp.Header); name != "" {
		utils.Debug("Remote file name from Content-Disposition: %s", name)
	}
	if kind, _ := filetype.Match(header); kind != filetype.Unknown {
		utils.Debug("Detected file type: %s (%s)", kind.Extension, kind.MIME.Value)
	}

	out, err := t.fs.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}

	// Put the sniffed bytes back in front of the rest of the stream.
	body := io.MultiReader(bytes.NewReader(header), resp.Body)
	written, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	utils.Debug("Wrote %d bytes to %s", written, outputPath)
	return nil
}

// open issues a GET and returns the response with the first bytes of its body
// already read. On error the body is closed.
func (t *HTTPTransfer) open(ctx context.Context, link string) (*http.Response, []byte, error) {
	utils.Debug("GET %s", link)
	resp, err := t.client.Do(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("unexpected response status: %s", resp.Status)
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp, header[:n], nil
}

func isWebPage(header []byte) bool {
	return len(header) > 0 && strings.HasPrefix(http.DetectContentType(header), "text/html")
}

var (
	formTagRe    = regexp.MustCompile(`(?is)<form\b[^>]*\bid="download-form"[^>]*>`)
	inputTagRe   = regexp.MustCompile(`(?is)<input\b[^>]*>`)
	attrRe       = regexp.MustCompile(`(?is)\b(name|value|type|action)="([^"]*)"`)
	confirmParam = regexp.MustCompile(`confirm=([0-9A-Za-z_-]+)`)
)

// confirmLink finds the follow-up URL on Drive's large-file warning page. It
// understands the hidden download form, the download_warning cookie and a bare
// confirm token in the page. The page is read up to maxWarningPage bytes.
func confirmLink(resp *http.Response, header []byte, base, ref string) (string, bool) {
	rest, _ := io.ReadAll(io.LimitReader(resp.Body, maxWarningPage))
	page := append(append([]byte{}, header...), rest...)

	if tag := formTagRe.Find(page); tag != nil {
		action := attrs(tag)["action"]
		if action != "" {
			q := url.Values{}
			for _, input := range inputTagRe.FindAll(page, -1) {
				a := attrs(input)
				if strings.EqualFold(a["type"], "hidden") && a["name"] != "" {
					q.Set(a["name"], a["value"])
				}
			}
			if q.Get("confirm") != "" || q.Get("uuid") != "" {
				return action + "?" + q.Encode(), true
			}
		}
	}

	for _, c := range resp.Cookies() {
		if strings.HasPrefix(c.Name, "download_warning") && c.Value != "" {
			return confirmedDownloadURL(base, ref, c.Value), true
		}
	}

	if m := confirmParam.FindSubmatch(page); m != nil {
		return confirmedDownloadURL(base, ref, string(m[1])), true
	}
	return "", false
}

// maxWarningPage bounds how much of a warning page is inspected.
const maxWarningPage = 1 << 20

func attrs(tag []byte) map[string]string {
	out := make(map[string]string)
	for _, m := range attrRe.FindAllSubmatch(tag, -1) {
		out[strings.ToLower(string(m[1]))] = html.UnescapeString(string(m[2]))
	}
	return out
}

func confirmedDownloadURL(base, ref, token string) string {
	return directDownloadURL(base, ref) + "&confirm=" + url.QueryEscape(token)
}

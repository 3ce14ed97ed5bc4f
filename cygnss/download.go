package cygnss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/earthsignals/cygnss-gridder/internal/credentials"
	"github.com/earthsignals/cygnss-gridder/internal/logging"
	"github.com/earthsignals/cygnss-gridder/model"
)

const (
	// podaacBaseURL is the PO.DAAC cumulus HTTPS archive root.
	podaacBaseURL = "https://archive.podaac.earthdata.nasa.gov/podaac-ops-cumulus-protected"

	// earthdataHost is the URS single-sign-on host that download requests
	// redirect through; basic auth must be re-attached there.
	earthdataHost = "urs.earthdata.nasa.gov"

	numSpacecraft = 8
)

// Downloader fetches CYGNSS granules from the PO.DAAC HTTPS archive into
// the local LEVEL/VERSION/YYYY/MM/DD layout the Reader expects.
type Downloader struct {
	creds   credentials.Credentials
	client  *http.Client
	log     logging.Logger
	baseURL string
	retries int
	backoff time.Duration
}

// DownloaderOption configures optional Downloader behavior.
type DownloaderOption func(*Downloader)

// WithDownloadLogger sets the downloader's logger.
func WithDownloadLogger(log logging.Logger) DownloaderOption {
	return func(d *Downloader) { d.log = log }
}

// WithBaseURL overrides the archive root, mainly for tests.
func WithBaseURL(url string) DownloaderOption {
	return func(d *Downloader) { d.baseURL = strings.TrimSuffix(url, "/") }
}

// WithRetries sets how many times a transient failure is retried per
// granule. Defaults to 3.
func WithRetries(n int) DownloaderOption {
	return func(d *Downloader) { d.retries = n }
}

// NewDownloader builds a Downloader authenticating with the given Earthdata
// credentials.
func NewDownloader(creds credentials.Credentials, opts ...DownloaderOption) (*Downloader, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	d := &Downloader{
		creds:   creds,
		log:     logging.Noop(),
		baseURL: podaacBaseURL,
		retries: 3,
		backoff: 2 * time.Second,
	}
	d.client = &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Minute,
		// Go drops Authorization on cross-host redirects; the URS
		// sign-on hop needs it back.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			if req.URL.Host == earthdataHost {
				req.SetBasicAuth(creds.Username, creds.Password)
			}
			return nil
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// collectionName maps a product level and version to the PO.DAAC collection
// directory, e.g. CYGNSS_L1_V3.1.
func collectionName(level model.ProductLevel, version string) string {
	return fmt.Sprintf("CYGNSS_%s_V%s", level, strings.TrimPrefix(version, "v"))
}

// granuleName returns the archive file name for one spacecraft-day.
func granuleName(spacecraft int, date time.Time) string {
	day := date.Format("20060102")
	return fmt.Sprintf("cyg%02d.ddmi.s%s-000000-e%s-235959.l1.power-brcs.a31.d32.nc", spacecraft, day, day)
}

// DownloadDay fetches all spacecraft granules for one day, returning the
// local paths written. A granule absent from the archive (not every
// spacecraft reports every day) is skipped, not an error.
func (d *Downloader) DownloadDay(ctx context.Context, level model.ProductLevel, version string, date time.Time, destDir string) ([]string, error) {
	dayDir := filepath.Join(destDir, level.String(), version,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day()),
	)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dayDir, err)
	}

	var written []string
	for sc := 1; sc <= numSpacecraft; sc++ {
		name := granuleName(sc, date)
		url := fmt.Sprintf("%s/%s/%s", d.baseURL, collectionName(level, version), name)
		dest := filepath.Join(dayDir, name)

		if _, err := os.Stat(dest); err == nil {
			d.log.Debug(ctx, "granule already present", logging.String("file", name))
			written = append(written, dest)
			continue
		}

		found, err := d.fetch(ctx, url, dest)
		if err != nil {
			return written, err
		}
		if !found {
			d.log.Debug(ctx, "granule not in archive", logging.String("file", name))
			continue
		}
		d.log.Info(ctx, "granule downloaded", logging.String("file", name))
		written = append(written, dest)
	}
	return written, nil
}

// DownloadRange fetches granules for an inclusive date range.
func (d *Downloader) DownloadRange(ctx context.Context, level model.ProductLevel, version string, start, end time.Time, destDir string) ([]string, error) {
	var written []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		paths, err := d.DownloadDay(ctx, level, version, day, destDir)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// fetch downloads one URL to dest, retrying transient failures. It reports
// found=false for a 404 without error.
func (d *Downloader) fetch(ctx context.Context, url, dest string) (found bool, err error) {
	for attempt := 0; ; attempt++ {
		found, err = d.fetchOnce(ctx, url, dest)
		if err == nil || attempt >= d.retries || ctx.Err() != nil {
			return found, err
		}
		d.log.Warn(ctx, "retrying download",
			logging.String("url", url),
			logging.Int("attempt", attempt+1),
			logging.Any("error", err),
		)
		select {
		case <-time.After(time.Duration(attempt+1) * d.backoff):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func (d *Downloader) fetchOnce(ctx context.Context, url, dest string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.SetBasicAuth(d.creds.Username, d.creds.Password)

	resp, err := d.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, fmt.Errorf("earthdata rejected credentials for %s: %s", url, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("downloading %s: %s", url, resp.Status)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return false, fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, os.Rename(tmp, dest)
}

/*
Copyright © 2026 the binned authors.
This file is part of binned.

binned is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

binned is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with binned.  If not, see <http://www.gnu.org/licenses/>.
*/

package binnedutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/golang/groupcache/lru"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// downloads remembers where remote archives have been downloaded to, so
// that opening the same location several times fetches it once.
var downloads = struct {
	sync.Mutex
	*lru.Cache
}{Cache: lru.New(32)}

// maybeDownload returns loc if it is an existing local file. If loc is an
// http(s) URL or a blob location, the archive is downloaded to a temporary
// directory and the path of the downloaded file is returned. Any other
// location is returned unchanged.
func maybeDownload(ctx context.Context, loc string, log logrus.FieldLogger) (string, error) {
	if _, err := os.Stat(loc); err == nil {
		return loc, nil
	}
	var fetch func(context.Context, string, io.Writer) error
	switch {
	case strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://"):
		fetch = fetchHTTP
	case IsBlob(loc):
		fetch = fetchBlob
	default:
		return loc, nil
	}

	downloads.Lock()
	defer downloads.Unlock()
	if p, ok := downloads.Get(loc); ok {
		if _, err := os.Stat(p.(string)); err == nil {
			return p.(string), nil
		}
		downloads.Remove(loc)
	}

	dir, err := ioutil.TempDir("", "binned")
	if err != nil {
		return "", fmt.Errorf("binnedutil: creating temporary download directory: %v", err)
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("binnedutil: %v", err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "archive.nc"
	}
	local := filepath.Join(dir, name)

	start := time.Now()
	var failed error
	err = backoff.RetryNotify(
		func() error {
			w, err := os.Create(local)
			if err != nil {
				failed = err
				return nil
			}
			defer w.Close()
			if err := fetch(ctx, loc, w); err != nil {
				if p, ok := err.(permanent); ok {
					failed = p.error
					return nil
				}
				return err
			}
			return w.Close()
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx),
		func(err error, d time.Duration) {
			log.WithError(err).Warnf("downloading %s: retrying in %v", loc, d)
		},
	)
	if err == nil {
		err = failed
	}
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("binnedutil: downloading %s: %v", loc, err)
	}
	log.WithFields(logrus.Fields{
		"location": loc,
		"path":     local,
		"duration": time.Since(start),
	}).Info("downloaded archive")
	downloads.Add(loc, local)
	return local, nil
}

// permanent marks download errors that retrying cannot fix.
type permanent struct{ error }

// httpStatusError is returned for unsuccessful responses.
type httpStatusError struct {
	url    string
	status int
}

func (e httpStatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.url, e.status, http.StatusText(e.status))
}

func fetchHTTP(ctx context.Context, loc string, w io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, loc, nil)
	if err != nil {
		return permanent{err}
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := httpStatusError{url: loc, status: resp.StatusCode}
		if resp.StatusCode < 500 {
			return permanent{err}
		}
		return err
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// IsBlob returns whether the given location represents a blob
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(loc string) bool {
	return strings.HasPrefix(loc, "gs://") || strings.HasPrefix(loc, "s3://") || strings.HasPrefix(loc, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// which must be in the format 'provider://name'. The accepted providers
// are "file" for the local filesystem, "gs" for Google Cloud Storage, and
// "s3" for AWS S3. For "file" buckets, name is a directory.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("binnedutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Host + u.Path)
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("binnedutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It reads credentials from the
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables and
// the region from AWS_REGION.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob splits a blob location into its bucket and object key. For
// file:// locations the bucket is the directory holding the file.
func splitBlob(loc string) (bucket, key string, err error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "file" {
		dir, file := filepath.Split(u.Host + u.Path)
		return "file://" + filepath.Clean(dir), file, nil
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func fetchBlob(ctx context.Context, loc string, w io.Writer) error {
	bucketName, key, err := splitBlob(loc)
	if err != nil {
		return permanent{err}
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return permanent{err}
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

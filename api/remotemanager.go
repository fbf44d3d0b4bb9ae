package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aouyang1/pptmaker/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"
)

const (
	remoteCheckInterval = time.Duration(1 * time.Hour)
	remoteSyncTimeout   = time.Duration(10 * time.Minute)
)

// RemoteManager backs the documents directory up to S3. Files are only
// ever uploaded; deletes stay local.
type RemoteManager struct {
	client   *s3.Client
	uploader *manager.Uploader

	s3Bucket string
	s3Prefix string

	local *LocalManager
}

// NewRemoteManager loads the shared AWS configuration, using profile when
// set, and backs local up to bucket under prefix.
func NewRemoteManager(local *LocalManager, bucket, prefix, profile string) (*RemoteManager, error) {
	if bucket == "" {
		return nil, errors.New("no s3 bucket provided")
	}

	opts := []func(*config.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	// Load the Shared AWS Configuration (~/.aws/config)
	ctxCfg, cancelCfg := context.WithTimeout(context.Background(), time.Duration(3*time.Second))
	cfg, err := config.LoadDefaultConfig(ctxCfg, opts...)
	cancelCfg()
	if err != nil {
		return nil, err
	}

	return newRemoteManagerWithClient(s3.NewFromConfig(cfg), bucket, prefix, local), nil
}

func newRemoteManagerWithClient(client *s3.Client, bucket, prefix string, local *LocalManager) *RemoteManager {
	return &RemoteManager{
		client:   client,
		uploader: manager.NewUploader(client),
		s3Bucket: bucket,
		s3Prefix: strings.Trim(prefix, "/"),
		local:    local,
	}
}

func (r *RemoteManager) key(name string) string {
	if r.s3Prefix == "" {
		return name
	}
	return path.Join(r.s3Prefix, name)
}

// backedUp reports whether a file in the documents directory is part of the
// backup: presentations and their outline sidecars.
func backedUp(name string) bool {
	ext := filepath.Ext(name)
	return util.SupportedExt.Contains(ext) || ext == util.SidecarExt
}

// fileStat is what Sync compares between the documents directory and the
// bucket.
type fileStat struct {
	size     int64
	modified time.Time
}

// stale reports whether the remote copy is older than, or differs in size
// from, the local file.
func (local fileStat) stale(remote fileStat) bool {
	return local.size != remote.size || local.modified.After(remote.modified)
}

func (r *RemoteManager) getLocalFiles() (map[string]fileStat, error) {
	dirs, err := os.ReadDir(r.local.Dir())
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", r.local.Dir(), err)
	}

	localFiles := make(map[string]fileStat)
	for dir := range slices.Values(dirs) {
		name := dir.Name()
		if dir.IsDir() || strings.HasPrefix(name, ".") || !backedUp(name) {
			continue
		}
		info, err := dir.Info()
		if err != nil {
			slog.Warn("unable to stat local file", "name", name, "error", err)
			continue
		}
		localFiles[name] = fileStat{size: info.Size(), modified: info.ModTime()}
	}
	return localFiles, nil
}

func (r *RemoteManager) getRemoteFiles(ctx context.Context) (map[string]fileStat, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(r.s3Bucket),
	}
	if r.s3Prefix != "" {
		input.Prefix = aws.String(r.s3Prefix + "/")
	}

	remoteFiles := make(map[string]fileStat)
	paginator := s3.NewListObjectsV2Paginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for object := range slices.Values(page.Contents) {
			name := path.Base(aws.ToString(object.Key))
			if !backedUp(name) {
				continue
			}
			remoteFiles[name] = fileStat{
				size:     aws.ToInt64(object.Size),
				modified: aws.ToTime(object.LastModified),
			}
		}
	}
	return remoteFiles, nil
}

func keys(files map[string]fileStat) mapset.Set[string] {
	names := mapset.NewSetWithSize[string](len(files))
	for name := range files {
		names.Add(name)
	}
	return names
}

func (r *RemoteManager) UploadObject(ctx context.Context, name string) error {
	f, err := os.Open(filepath.Join(r.local.Dir(), name))
	if err != nil {
		return fmt.Errorf("unable to open file for s3 upload, %s, %w", name, err)
	}
	defer f.Close()

	if _, err := r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.s3Bucket),
		Key:    aws.String(r.key(name)),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("unable to upload object to s3, %s, %w", name, err)
	}
	return nil
}

// Sync uploads every local file the bucket does not have yet, or has an
// older or different-sized copy of, and returns the names it uploaded.
// Overwritten presentations are uploaded again this way.
func (r *RemoteManager) Sync(ctx context.Context) ([]string, error) {
	localFiles, err := r.getLocalFiles()
	if err != nil {
		return nil, err
	}
	if len(localFiles) == 0 {
		return nil, nil
	}

	remoteFiles, err := r.getRemoteFiles(ctx)
	if err != nil {
		return nil, err
	}

	localNames, remoteNames := keys(localFiles), keys(remoteFiles)
	toUpload := localNames.Difference(remoteNames)
	for name := range localNames.Intersect(remoteNames).Iter() {
		if localFiles[name].stale(remoteFiles[name]) {
			toUpload.Add(name)
		}
	}
	if toUpload.Cardinality() == 0 {
		return nil, nil
	}

	names := toUpload.ToSlice()
	slices.Sort(names)
	slog.Info("uploading files", "count", len(names), "names", names)
	var uploaded []string
	for name := range slices.Values(names) {
		if err := r.UploadObject(ctx, name); err != nil {
			slog.Warn("error while uploading s3 object", "name", name, "error", err)
			continue
		}
		uploaded = append(uploaded, name)
	}
	return uploaded, nil
}

func (r *RemoteManager) sync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, remoteSyncTimeout)
	defer cancel()
	if _, err := r.Sync(ctx); err != nil {
		slog.Warn("error while syncing with remote", "error", err)
	}
}

// Run syncs once, then on every tick and after every local save until ctx
// is done.
func (r *RemoteManager) Run(ctx context.Context) {
	ticker := time.NewTicker(remoteCheckInterval)
	defer ticker.Stop()

	// Initial sync
	r.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-r.local.Updated:
		}
		r.sync(ctx)
	}
}

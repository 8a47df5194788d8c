package client

import (
	"context"
	"os"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/types"
)

// DownloadFile fetches and decrypts a file attachment. The plaintext is
// cached on the KeeperFile, so repeated calls hit the network once.
func (s *SecretsManager) DownloadFile(ctx context.Context, file *types.KeeperFile) ([]byte, error) {
	if data := file.CachedData(); data != nil {
		return data, nil
	}
	if file.Url == "" {
		return nil, kerr.New(kerr.KindFile, component, "file %s has no download url", file.Uid)
	}
	data, err := s.downloadAndDecrypt(ctx, file.Url, file.FileKey)
	if err != nil {
		return nil, err
	}
	file.SetCachedData(data)
	return data, nil
}

// DownloadThumbnail fetches and decrypts a file's thumbnail
func (s *SecretsManager) DownloadThumbnail(ctx context.Context, file *types.KeeperFile) ([]byte, error) {
	if file.ThumbnailUrl == "" {
		return nil, kerr.New(kerr.KindFile, component, "file %s has no thumbnail", file.Uid)
	}
	return s.downloadAndDecrypt(ctx, file.ThumbnailUrl, file.FileKey)
}

// SaveFile downloads a file attachment to the given path
func (s *SecretsManager) SaveFile(ctx context.Context, file *types.KeeperFile, path string) error {
	data, err := s.DownloadFile(ctx, file)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return kerr.Wrap(kerr.KindFile, component, err, "failed to write %s", path)
	}
	return nil
}

func (s *SecretsManager) downloadAndDecrypt(ctx context.Context, url string, fileKey []byte) ([]byte, error) {
	body, err := s.transport.DownloadBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return crypto.DecryptAESGCM(fileKey, body)
}

package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// StageName attributes publish failures.
const StageName = "Publish"

// Error codes attached to publish_failed errors.
const (
	CodeAuth   = "auth"
	CodeQuota  = "quota"
	CodeUpload = "upload"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Uploader publishes episodes through the YouTube Data API.
type Uploader struct {
	svc    *youtube.Service
	cfg    config.Publish
	logger *slog.Logger
}

// New wraps an existing YouTube service.
func New(svc *youtube.Service, cfg config.Publish, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Uploader{svc: svc, cfg: cfg, logger: logging.NewComponentLogger(logger, "publish")}
}

// NewFromConfig authenticates with the configured refresh token. Extra
// client options are appended after the token source.
func NewFromConfig(ctx context.Context, cfg config.Publish, logger *slog.Logger, opts ...option.ClientOption) (*Uploader, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" || strings.TrimSpace(cfg.RefreshToken) == "" {
		return nil, services.WithHint(
			services.Wrap(services.ErrConfiguration, StageName, "youtube auth", "missing OAuth credentials", nil),
			"set YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_REFRESH_TOKEN",
		)
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken, Expiry: time.Now().Add(-time.Hour)}
	clientOpts := append([]option.ClientOption{option.WithTokenSource(oauthCfg.TokenSource(ctx, token))}, opts...)
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, services.WrapCode(services.ErrPublishFailed, StageName, "youtube service", CodeAuth, "", err)
	}
	return New(svc, cfg, logger), nil
}

// Publish uploads the file at path and returns the remote id and watch URL.
func (u *Uploader) Publish(ctx context.Context, path string, meta Metadata) (episode.PublishResult, error) {
	meta = decorate(meta, u.cfg)
	if !config.ValidVisibility(meta.Visibility) {
		return episode.PublishResult{}, services.Wrap(services.ErrConfiguration, StageName, "upload", fmt.Sprintf("unsupported visibility %q", meta.Visibility), nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return episode.PublishResult{}, services.WrapCode(services.ErrPublishFailed, StageName, "open artifact", CodeUpload, "", err)
	}
	defer f.Close()
	var size int64
	if info, statErr := f.Stat(); statErr == nil {
		size = info.Size()
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           u.cfg.CategoryID,
			DefaultLanguage:      u.cfg.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Visibility,
			SelfDeclaredMadeForKids: u.cfg.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	u.logger.Info("uploading episode",
		logging.String(logging.FieldEventType, "publish_started"),
		logging.String("title", meta.Title),
		logging.String("visibility", meta.Visibility),
		logging.Int64("size_bytes", size),
	)
	start := time.Now()
	uploaded, err := u.svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Context(ctx).Do()
	if err != nil {
		return episode.PublishResult{}, Classify(err)
	}
	if uploaded == nil || strings.TrimSpace(uploaded.Id) == "" {
		return episode.PublishResult{}, services.WrapCode(services.ErrPublishFailed, StageName, "upload", CodeUpload, "response carried no video id", nil)
	}
	result := episode.PublishResult{
		RemoteID:   uploaded.Id,
		URL:        watchURLPrefix + uploaded.Id,
		Visibility: meta.Visibility,
	}
	u.logger.Info("episode uploaded",
		logging.String(logging.FieldEventType, "publish_completed"),
		logging.String("remote_id", result.RemoteID),
		logging.String("url", result.URL),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

var quotaReasons = map[string]struct{}{
	"quotaExceeded":       {},
	"uploadLimitExceeded": {},
	"rateLimitExceeded":   {},
	"dailyLimitExceeded":  {},
}

// Classify maps an upload error to publish_failed with an auth, quota or
// upload code. Context errors become canceled.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var se *services.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrCanceled, StageName, "upload", "", err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return services.WithHint(
			services.WrapCode(services.ErrPublishFailed, StageName, "upload", CodeAuth, "token refresh failed", err),
			"refresh token may be revoked; re-run the OAuth consent flow",
		)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if _, ok := quotaReasons[item.Reason]; ok {
				return services.WithHint(
					services.WrapCode(services.ErrPublishFailed, StageName, "upload", CodeQuota, item.Reason, err),
					"YouTube quota exhausted; retry after the daily reset",
				)
			}
		}
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return services.WithHint(
				services.WrapCode(services.ErrPublishFailed, StageName, "upload", CodeAuth, "", err),
				"check the YouTube OAuth credentials and channel permissions",
			)
		}
	}
	return services.WrapCode(services.ErrPublishFailed, StageName, "upload", CodeUpload, "", err)
}

// Skipper is used when publishing is disabled.
type Skipper struct {
	Visibility string
}

// Publish records a skipped upload.
func (s Skipper) Publish(context.Context, string, Metadata) (episode.PublishResult, error) {
	return episode.PublishResult{Skipped: true, Visibility: s.Visibility}, nil
}

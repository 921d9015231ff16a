package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/report"
	apperrors "p4-dashboard/pkg/errors"
)

const sessionKeyPrefix = "p4:session:"

// SessionService 操作员界面状态（页面、筛选、检索、类别、选中学校）的保存与恢复
//
// 状态按用户名保存在 cache.Store 中；读不到或无法解码时返回默认会话。
type SessionService interface {
	Get(ctx context.Context, username string) (report.Session, error)
	Save(ctx context.Context, username string, s report.Session) (report.Session, error)
	Reset(ctx context.Context, username string) (report.Session, error)
}

type sessionService struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例；ttl 一般与 AccessToken 有效期一致
func NewSessionService(store cache.Store, ttl time.Duration, logger *zap.Logger) SessionService {
	return &sessionService{store: store, ttl: ttl, logger: logger}
}

func (s *sessionService) Get(ctx context.Context, username string) (report.Session, error) {
	b, err := s.store.GetBytes(ctx, sessionKeyPrefix+username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			s.logger.Warn("读取会话失败，使用默认会话", zap.String("username", username), zap.Error(err))
		}
		return report.DefaultSession(), nil
	}

	var sess report.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		s.logger.Warn("会话内容无法解码，使用默认会话", zap.String("username", username), zap.Error(err))
		return report.DefaultSession(), nil
	}
	sess.Sanitize()
	return sess, nil
}

func (s *sessionService) Save(ctx context.Context, username string, sess report.Session) (report.Session, error) {
	sess.Sanitize()
	b, err := json.Marshal(sess)
	if err != nil {
		return report.Session{}, err
	}
	if err := s.store.SetBytes(ctx, sessionKeyPrefix+username, b, s.ttl); err != nil {
		s.logger.Error("保存会话失败", zap.String("username", username), zap.Error(err))
		return report.Session{}, err
	}
	return sess, nil
}

func (s *sessionService) Reset(ctx context.Context, username string) (report.Session, error) {
	if err := s.store.Delete(ctx, sessionKeyPrefix+username); err != nil {
		s.logger.Error("重置会话失败", zap.String("username", username), zap.Error(err))
		return report.Session{}, err
	}
	return report.DefaultSession(), nil
}

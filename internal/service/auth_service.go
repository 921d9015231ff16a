package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"p4-dashboard/config"
	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/dto"
	apperrors "p4-dashboard/pkg/errors"
	"p4-dashboard/pkg/jwt"
	"p4-dashboard/pkg/metrics"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrTokenRevoked       = errors.New("token 已注销")
)

// TokenBlacklist 已注销 Token 的存储（*redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 登录闸门业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	// Authenticate 校验 Token 并检查黑名单
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

type authService struct {
	cfg       *config.AuthConfig
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.AuthConfig,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 校验用户名（常量时间比较）
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Username)) == 1

	// 2. 验证密码 (bcrypt)；用户名错误时同样执行一次比较，避免时间差泄露
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
	if !userOK || pwErr != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.ResultDenied).Inc()
		s.logger.Warn("登录失败", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token
	accessToken, err := s.jwtMgr.GenerateAccessToken(s.cfg.Username)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("登录成功", zap.String("username", s.cfg.Username))

	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Username:    s.cfg.Username,
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
		return err
	}
	s.logger.Info("已注销", zap.String("username", claims.Username))
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		// 黑名单不可用时放行，只记录日志
		s.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		return claims, nil
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// ── Redis 不可用时的黑名单 ──

const blacklistKeyPrefix = "token:blacklist:"

// storeBlacklist 基于 cache.Store 的黑名单实现
type storeBlacklist struct {
	store cache.Store
}

// NewStoreBlacklist 用任意 cache.Store（通常是进程内存储）实现 TokenBlacklist
func NewStoreBlacklist(store cache.Store) TokenBlacklist {
	return &storeBlacklist{store: store}
}

func (b *storeBlacklist) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.store.SetBytes(ctx, blacklistKeyPrefix+jti, []byte("1"), ttl)
}

func (b *storeBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, err := b.store.GetBytes(ctx, blacklistKeyPrefix+jti)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperrors.ErrCacheMiss) {
		return false, nil
	}
	return false, err
}

package errors

import "errors"

// ErrStoreUnavailable 外部表格存储（Google Sheets）读写失败
var ErrStoreUnavailable = errors.New("外部表格存储不可用")

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

package repository

import "context"

// カートスナップショット（ユーザーごとに1件のJSON blob）の保存・取得を約束
type CartSnapshotRepository interface {
	// 無ければ ok=false（エラーにしない）
	Load(ctx context.Context, userID int64) (payload []byte, ok bool, err error)
	// 全量上書き
	Save(ctx context.Context, userID int64, payload []byte) error
}

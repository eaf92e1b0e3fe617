package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"app/internal/domain/model"

	log "github.com/sirupsen/logrus"
)

var (
	// 別レストランの商品は同じカートに入れられない
	ErrDifferentRestaurant = errors.New("different restaurant")
	// 対象の明細が無い
	ErrLineNotFound = errors.New("line not found")
	// 数量が1未満
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// スナップショットの保存先。
// main.goでGORM実装を注入する。
type SnapshotRepository interface {
	Load(ctx context.Context, userID int64) ([]byte, bool, error)
	Save(ctx context.Context, userID int64, payload []byte) error
}

type saveJob struct {
	userID  int64
	payload []byte
}

// Storeはユーザーごとのカートを持つ。
// メモリ上の状態がセッション中の正で、保存は非同期（失敗してもロールバックしない）。
type Store struct {
	mu       sync.Mutex
	carts    map[int64][]model.CartLine
	hydrated map[int64]bool

	repo SnapshotRepository
	jobs chan saveJob
	done chan struct{}
}

func New(repo SnapshotRepository) *Store {
	s := &Store{
		carts:    make(map[int64][]model.CartLine),
		hydrated: make(map[int64]bool),
		repo:     repo,
		jobs:     make(chan saveJob, 64),
		done:     make(chan struct{}),
	}
	go s.persistLoop()
	return s
}

// 保存ワーカー。キューを順に書く。
func (s *Store) persistLoop() {
	for job := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := s.repo.Save(ctx, job.userID, job.payload); err != nil {
			log.WithFields(log.Fields{
				"user_id": job.userID,
			}).WithError(err).Warn("cart snapshot save failed")
		}
		cancel()
	}
	close(s.done)
}

// Closeは未保存分を書き切ってから戻る。
func (s *Store) Close() {
	close(s.jobs)
	<-s.done
}

// Addは明細を追加する。同じproduct_idなら数量を加算（2行にはしない）。
func (s *Store) Add(ctx context.Context, userID int64, line model.CartLine) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID)

	lines := s.carts[userID]

	//1カート1レストラン
	if len(lines) > 0 && lines[0].RestaurantID != line.RestaurantID {
		return ErrDifferentRestaurant
	}

	merged := false
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		if line.AddedAt.IsZero() {
			line.AddedAt = time.Now()
		}
		lines = append(lines, line)
	}

	s.carts[userID] = lines
	s.enqueueSnapshot(userID)
	return nil
}

// Removeは明細を丸ごと消す。
func (s *Store) Remove(ctx context.Context, userID int64, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID)

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			s.enqueueSnapshot(userID)
			return nil
		}
	}
	return ErrLineNotFound
}

// Increaseは数量+1。
func (s *Store) Increase(ctx context.Context, userID int64, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID)

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity++
			s.enqueueSnapshot(userID)
			return nil
		}
	}
	return ErrLineNotFound
}

// Decreaseは数量-1。0になるなら明細ごと消す（数量0の行は残さない）。
func (s *Store) Decrease(ctx context.Context, userID int64, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID)

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			if lines[i].Quantity <= 1 {
				s.carts[userID] = append(lines[:i], lines[i+1:]...)
			} else {
				lines[i].Quantity--
			}
			s.enqueueSnapshot(userID)
			return nil
		}
	}
	return ErrLineNotFound
}

// Clearはカートを空にする。
func (s *Store) Clear(ctx context.Context, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID)

	s.carts[userID] = nil
	s.enqueueSnapshot(userID)
}

// Linesは現在の明細のコピーを返す（追加順のまま）。
func (s *Store) Lines(ctx context.Context, userID int64) []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID)

	lines := s.carts[userID]
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out
}

// 初回アクセス時に1回だけ復元する。
// 無い・壊れている場合は空カート（エラーにしない）。
func (s *Store) ensureLoaded(ctx context.Context, userID int64) {
	if s.hydrated[userID] {
		return
	}
	s.hydrated[userID] = true

	payload, ok, err := s.repo.Load(ctx, userID)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID}).WithError(err).Warn("cart snapshot load failed")
		return
	}
	if !ok {
		return
	}

	var lines []model.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		log.WithFields(log.Fields{"user_id": userID}).WithError(err).Warn("cart snapshot corrupt, starting empty")
		return
	}
	s.carts[userID] = lines
}

// 現在のカートをJSONにして保存キューへ。満杯でもミューテーションは止めない。
// 呼び出し側がmuを持っている前提。
func (s *Store) enqueueSnapshot(userID int64) {
	payload, err := json.Marshal(s.carts[userID])
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID}).WithError(err).Warn("cart snapshot marshal failed")
		return
	}

	select {
	case s.jobs <- saveJob{userID: userID, payload: payload}:
	default:
		log.WithFields(log.Fields{"user_id": userID}).Warn("cart snapshot queue full, snapshot dropped")
	}
}

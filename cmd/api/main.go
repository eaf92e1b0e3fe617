package main

import (
	"app/internal/cartstore"
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/payment"
	"app/internal/pricing"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	//.envは無ければ環境変数をそのまま使う
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	//署名シークレットが無い状態ではcheckoutを提供できないので起動時に落とす
	signer, err := payment.NewSigner(cfg.WompiIntegritySecret)
	if err != nil {
		log.WithError(err).Fatal("payment signer init failed")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.MenuItem{},
		&model.CartSnapshot{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	menuRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	snapshotRepo := infraRepo.NewCartSnapshotGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//カートはメモリが本体、スナップショット保存は非同期
	store := cartstore.New(snapshotRepo)
	defer store.Close()

	policy := pricing.FeePolicy{
		FreeThreshold: cfg.FreeDeliveryThreshold,
		Fee:           cfg.DeliveryFeeMinor,
	}

	gateway := payment.NewGateway(cfg, signer)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret)
	menuUC := usecase.NewMenuUsecase(menuRepo)
	cartUC := usecase.NewCartUsecase(store, menuRepo, policy)
	checkoutUC := usecase.NewCheckoutUsecase(store, txManager, userRepo, gateway, validator.NewCheckoutValidator(), policy)
	orderUC := usecase.NewOrderUsecase(txManager)
	reconcileUC := usecase.NewReconcileUsecase(orderRepo, gateway)

	//Handler生成
	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(authUC),
		Menu:     handler.NewMenuHandler(menuUC),
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Order:    handler.NewOrderHandler(orderUC, reconcileUC),
		Webhook:  handler.NewWebhookHandler(reconcileUC),
	}

	//Server起動
	log.WithField("port", cfg.Port).Info("server starting")
	if err := server.Start(cfg, handlers); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

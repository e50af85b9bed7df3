package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"telegram-marketplace-bot/internal/config"
	pg "telegram-marketplace-bot/internal/infra/db/postgres"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/usecase"
)

// Demo Telegram IDs; nothing real ever carries these.
const (
	demoSellerTgID   = 900_000_001
	demoCustomerTgID = 900_000_002
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pg.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	userRepo := pg.NewPostgresUserRepo(pool)
	storeRepo := pg.NewPostgresStoreRepo(pool)
	offerRepo := pg.NewPostgresOfferRepo(pool)
	tm := pg.NewTxManager(pool)

	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	storeUC := usecase.NewStoreUseCase(storeRepo, userRepo, tm, logger)
	offerUC := usecase.NewOfferUseCase(offerRepo, storeRepo, tm, logger)

	// If the demo seller exists, assume the dataset is already in place.
	if existing, err := userUC.GetByTelegramID(ctx, demoSellerTgID); err != nil {
		log.Fatalf("check demo seller: %v", err)
	} else if existing != nil {
		fmt.Println("demo data already present. No changes.")
		return
	}

	seller, err := userUC.RegisterOrFetch(ctx, demoSellerTgID, "demo_seller", "Азиз")
	if err != nil {
		log.Fatalf("create demo seller: %v", err)
	}
	if _, err := userUC.CompleteRegistration(ctx, demoSellerTgID, "+998901112233", "Ташкент"); err != nil {
		log.Fatalf("register demo seller: %v", err)
	}

	if _, err := userUC.RegisterOrFetch(ctx, demoCustomerTgID, "demo_customer", "Нилуфар"); err != nil {
		log.Fatalf("create demo customer: %v", err)
	}
	if _, err := userUC.CompleteRegistration(ctx, demoCustomerTgID, "+998907778899", "Ташкент"); err != nil {
		log.Fatalf("register demo customer: %v", err)
	}

	store, err := storeUC.Register(ctx, demoSellerTgID, usecase.StoreRegistration{
		Name:        "Пекарня Навруз",
		City:        "Ташкент",
		Address:     "ул. Амира Темура 15",
		Description: "Свежая выпечка каждый день",
		Category:    "Пекарня",
		Phone:       "+998901112233",
	})
	if err != nil {
		log.Fatalf("register demo store: %v", err)
	}
	if _, err := storeUC.Approve(ctx, store.ID); err != nil {
		log.Fatalf("approve demo store: %v", err)
	}
	fmt.Printf("seeded store: %s (id=%s)\n", store.Name, store.ID)

	until := time.Now().Add(6 * time.Hour)
	drafts := []usecase.OfferDraft{
		{StoreID: store.ID, Title: "Лепёшки (5 шт)", OriginalPrice: 15000, DiscountPrice: 7000, Quantity: 4, Unit: "шт", AvailableUntil: until},
		{StoreID: store.ID, Title: "Самса с мясом", OriginalPrice: 12000, DiscountPrice: 6000, Quantity: 10, Unit: "шт", AvailableUntil: until},
		{StoreID: store.ID, Title: "Бокс выпечки", OriginalPrice: 40000, DiscountPrice: 18000, Quantity: 2, Unit: "шт", AvailableUntil: until},
	}
	offers, err := offerUC.CreateBatch(ctx, seller.ID, drafts)
	if err != nil {
		log.Fatalf("create demo offers: %v", err)
	}
	for _, o := range offers {
		fmt.Printf("seeded offer: %s (id=%s, qty=%d)\n", o.Title, o.ID, o.Quantity)
	}

	fmt.Println("✅ Seeding complete.")
}

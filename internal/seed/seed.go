// Package seed populates a development database with fixture users
// and markets, using github.com/brianvoe/gofakeit instead of
// hand-rolled random data.
package seed

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit"

	"lmsrexchange/internal/auth"
	"lmsrexchange/internal/lmsr"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/store"
)

// Run creates userCount users and marketCount open markets with
// randomized titles, categories, and initial probabilities.
func Run(ctx context.Context, s *store.Store, userCount, marketCount int) error {
	users := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		_, hash, err := auth.GenerateAPIKey()
		if err != nil {
			return err
		}
		passwordHash, err := auth.HashPassword(gofakeit.Password(true, true, true, false, false, 16))
		if err != nil {
			return err
		}
		u := &models.User{
			Username:     gofakeit.Username(),
			DisplayName:  gofakeit.Name(),
			APIKeyHash:   hash,
			PasswordHash: passwordHash,
			Balance:      1000,
		}
		if err := s.CreateUser(ctx, u); err != nil {
			return err
		}
		users = append(users, *u)
	}

	categories := []string{"politics", "sports", "weather", "technology", "finance"}
	for i := 0; i < marketCount; i++ {
		creator := users[i%len(users)]
		b := 100.0
		p := float64(gofakeit.Float32Range(0.1, 0.9))
		inv := lmsr.InitialInventory(b, p)

		m := &models.Market{
			Title:           gofakeit.Sentence(8),
			Description:     gofakeit.Paragraph(1, 3, 10, " "),
			Category:        gofakeit.RandomString(categories),
			Source:          "manual",
			CloseAt:         time.Now().Add(time.Duration(gofakeit.Number(1, 30)) * 24 * time.Hour),
			CreatorUsername: creator.Username,
			QYes:            inv.QYes,
			QNo:             inv.QNo,
			B:               b,
			Status:          models.StatusOpen,
		}
		if err := s.CreateMarket(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

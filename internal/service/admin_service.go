package service

import (
	"context"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/internal/util"
	"ctf_game_backend/pkg/logger"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	analyticsWeeks    = 8
	recentPaidSignups = 5
	newUserWindow     = 30 * 24 * time.Hour
	week              = 7 * 24 * time.Hour

	exportSheetName    = "Users"
	exportDefaultSheet = "Sheet1"
)

// XLSXContentType is the MIME type of ExportUsers output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminUser is a user row as the admin dashboard sees it.
type AdminUser struct {
	model.User
	Score     int `json:"score"`
	Completed int `json:"completed"`
}

type AdminService struct {
	UserRepo *repository.UserRepository
	Games    *GameService
	Cfg      *config.Config
	now      func() time.Time
}

func NewAdminService(userRepo *repository.UserRepository, games *GameService, cfg *config.Config) *AdminService {
	return &AdminService{
		UserRepo: userRepo,
		Games:    games,
		Cfg:      cfg,
		now:      time.Now,
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]AdminUser, error) {
	users, err := s.UserRepo.List()
	if err != nil {
		return nil, err
	}

	out := make([]AdminUser, 0, len(users))
	for _, u := range users {
		gs := s.Games.For(util.OwnerKey(u.ID))
		state := gs.GetGameState(ctx)
		out = append(out, AdminUser{
			User:      u,
			Score:     state.TotalScore,
			Completed: len(state.CompletedChallenges),
		})
	}
	return out, nil
}

func (s *AdminService) findModifiable(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return nil, util.ErrAdminProtected
	}
	return user, nil
}

// SetBlocked blocks or unblocks a non-admin account.
func (s *AdminService) SetBlocked(id uint, blocked bool) (*model.User, error) {
	user, err := s.findModifiable(id)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdateFields(id, map[string]interface{}{"is_blocked": blocked}); err != nil {
		return nil, err
	}
	user.IsBlocked = blocked
	logger.Log.Info("User block state changed", zap.Uint("userID", id), zap.Bool("blocked", blocked))
	return user, nil
}

// SetPaid flips the subscription flag. It stands in for the payment webhook.
func (s *AdminService) SetPaid(id uint, paid bool) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdateFields(id, map[string]interface{}{"is_paid": paid}); err != nil {
		return nil, err
	}
	user.IsPaid = paid
	logger.Log.Info("User subscription changed", zap.Uint("userID", id), zap.Bool("paid", paid))
	return user, nil
}

// DeleteUser removes a non-admin account and its game progress.
func (s *AdminService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.findModifiable(id); err != nil {
		return err
	}
	if err := s.UserRepo.Delete(id); err != nil {
		return err
	}

	if err := s.Games.For(util.OwnerKey(id)).ResetGame(ctx); err != nil {
		logger.Log.Warn("Failed to clear progress of deleted user", zap.Uint("userID", id), zap.Error(err))
	}
	logger.Log.Info("User deleted", zap.Uint("userID", id))
	return nil
}

func (s *AdminService) Analytics() (*model.Analytics, error) {
	now := s.now()

	counts, err := s.UserRepo.Counts(now.Add(-newUserWindow))
	if err != nil {
		return nil, err
	}

	weeks := make([]model.WeeklySignups, 0, analyticsWeeks)
	for _, w := range WeekWindows(now, analyticsWeeks) {
		n, err := s.UserRepo.CountCreatedBetween(w.From, w.To)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, model.WeeklySignups{Week: w.Label, Users: n})
	}

	paid, err := s.UserRepo.RecentPaid(recentPaidSignups)
	if err != nil {
		return nil, err
	}
	recent := make([]model.RecentSignup, 0, len(paid))
	for _, u := range paid {
		recent = append(recent, model.RecentSignup{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt})
	}

	return &model.Analytics{
		Summary:           BuildSummary(counts, s.Cfg.Game.PremiumPrice),
		UsersByWeek:       weeks,
		RecentPaidSignups: recent,
	}, nil
}

// BuildSummary derives the dashboard figures. Revenue treats every paid user
// as one month at price.
func BuildSummary(counts repository.UserCounts, price float64) model.AnalyticsSummary {
	conversion := 0.0
	if counts.Total > 0 {
		conversion = math.Round(float64(counts.Paid)/float64(counts.Total)*100*100) / 100
	}
	revenue := fmt.Sprintf("%.2f", float64(counts.Paid)*price)

	return model.AnalyticsSummary{
		TotalUsers:         counts.Total,
		PaidUsers:          counts.Paid,
		FreeUsers:          counts.Total - counts.Paid,
		NewUsersLast30Days: counts.NewSince,
		ConversionRate:     conversion,
		TotalRevenue:       revenue,
		MRRRevenue:         revenue,
	}
}

type WeekWindow struct {
	Label    string
	From, To time.Time
}

// WeekWindows returns n consecutive seven day windows ending at now, oldest first.
func WeekWindows(now time.Time, n int) []WeekWindow {
	out := make([]WeekWindow, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, WeekWindow{
			Label: fmt.Sprintf("Week %d", n-i),
			From:  now.Add(-time.Duration(i+1) * week),
			To:    now.Add(-time.Duration(i) * week),
		})
	}
	return out
}

// ExportUsers writes the user list with game progress as an XLSX workbook.
func (s *AdminService) ExportUsers(ctx context.Context, w io.Writer) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Log.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if _, err := f.NewSheet(exportSheetName); err != nil {
		return err
	}
	if err := f.DeleteSheet(exportDefaultSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#f2f2f2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	headers := []string{"ID", "Username", "Name", "Email", "Paid", "Blocked", "Admin", "Score", "Completed", "Badge", "Joined"}
	if err := f.SetSheetRow(exportSheetName, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheetName, "A1", "K1", headerStyle); err != nil {
		return err
	}

	total := s.Games.Catalog.Len()
	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			u.ID,
			SanitizeCell(u.Username),
			SanitizeCell(u.Name),
			SanitizeCell(u.Email),
			u.IsPaid,
			u.IsBlocked,
			u.IsAdmin,
			u.Score,
			fmt.Sprintf("%d/%d", u.Completed, total),
			util.AchievementBadge(u.Completed, total),
			u.CreatedAt.Format(util.DateFormat),
		}
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(exportSheetName, "B", "D", 28); err != nil {
		return err
	}

	return f.Write(w)
}

// ExportFilename is the download name for an export taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("ctf_users_%s.xlsx", t.Format("20060102"))
}

// SanitizeCell stops user supplied text from being read as a spreadsheet formula.
func SanitizeCell(v string) string {
	if v == "" {
		return v
	}
	if strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/testutil"
)

var trackNumberPattern = regexp.MustCompile(`^SRV-\d{6}-[2-9A-HJ-NP-Z]{5}$`)

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func newRequest(t *testing.T, db *gorm.DB, actor Actor) *models.ServiceRequest {
	t.Helper()
	svc := NewRequestService(db, NewSettingsService(db))
	sr, err := svc.Create(context.Background(), actor, testutil.IntakeForm())
	require.NoError(t, err)
	return sr
}

func TestCreateServiceRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	svc := NewRequestService(db, NewSettingsService(db))

	sr, err := svc.Create(ctx, staff, testutil.IntakeForm())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sr.Status)
	assert.Equal(t, 1, sr.Version)
	assert.Regexp(t, trackNumberPattern, sr.TrackNumber)
	require.Len(t, sr.StatusLog, 1)
	assert.Equal(t, models.StatusPending, sr.StatusLog[0].Status)
	assert.Equal(t, staff.Email, sr.CreatedBy)

	t.Run("invalid form writes nothing", func(t *testing.T) {
		form := testutil.IntakeForm()
		form.CustomerName = " "
		_, err := svc.Create(ctx, staff, form)

		var verrs models.ValidationErrors
		require.True(t, errors.As(err, &verrs))

		var count int64
		require.NoError(t, db.Model(&models.ServiceRequest{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("teknisi cannot create", func(t *testing.T) {
		tech := actorOf(testutil.CreateUser(t, db, models.RoleTeknisi))
		_, err := svc.Create(ctx, tech, testutil.IntakeForm())
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestUpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	manager := actorOf(testutil.CreateUser(t, db, models.RoleManager))
	svc := NewRequestService(db, NewSettingsService(db))
	sr := newRequest(t, db, staff)

	updated, err := svc.UpdateStatus(ctx, staff, sr.ID, "Diterima", "unit masuk")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDiterima, updated.Status)
	require.Len(t, updated.StatusLog, 2)
	last := updated.StatusLog[1]
	assert.Equal(t, models.StatusDiterima, last.Status)
	assert.Equal(t, models.StatusPending, last.PreviousStatus)
	assert.Equal(t, "unit masuk", last.Note)
	assert.Equal(t, sr.Version+1, updated.Version)

	_, err = svc.UpdateStatus(ctx, staff, sr.ID, "diterima", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, staff, sr.ID, "entah", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, staff, sr.ID, "selesai", "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, staff, sr.ID, "diagnosa", "")
	assert.ErrorIs(t, err, ErrForbidden)

	reopened, err := svc.UpdateStatus(ctx, manager, sr.ID, "diagnosa", "garansi servis")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDiagnosa, reopened.Status)
	assert.Len(t, reopened.StatusLog, 4)

	history, err := svc.StatusHistory(ctx, staff, sr.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestUpdateServiceRequestVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	svc := NewRequestService(db, NewSettingsService(db))
	sr := newRequest(t, db, staff)

	name := "Siti Aminah"
	updated, err := svc.Update(ctx, staff, sr.ID, RequestPatch{CustomerName: &name}, sr.Version)
	require.NoError(t, err)
	assert.Equal(t, name, updated.CustomerName)
	assert.Equal(t, sr.Version+1, updated.Version)

	other := "Andi"
	_, err = svc.Update(ctx, staff, sr.ID, RequestPatch{CustomerName: &other}, sr.Version)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	empty := ""
	_, err = svc.Update(ctx, staff, sr.ID, RequestPatch{CustomerName: &empty}, updated.Version)
	var verrs models.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.SaveEstimate(ctx, staff, sr.ID, []models.EstimateItem{{Item: "LCD", Harga: 1, Qty: 1}}, sr.Version)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDPRecompute(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	admin := actorOf(testutil.CreateUser(t, db, models.RoleAdmin))
	requests := NewRequestService(db, NewSettingsService(db))
	payments := NewPaymentService(db)
	sr := newRequest(t, db, staff)

	sr, err := requests.SaveEstimate(ctx, staff, sr.ID, []models.EstimateItem{
		{Item: "Ganti LCD", Harga: 200000, Qty: 1},
		{Item: "Jasa", Harga: 50000, Qty: 1},
	}, sr.Version)
	require.NoError(t, err)
	assert.EqualValues(t, 250000, sr.TotalBiaya)
	assert.EqualValues(t, 0, sr.DP)

	first, err := payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 100000})
	require.NoError(t, err)
	assert.Equal(t, models.DPPending, first.Status)
	second, err := payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 50000})
	require.NoError(t, err)

	_, sr, err = payments.Approve(ctx, staff, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100000, sr.DP)
	assert.EqualValues(t, 150000, sr.TotalBiaya)

	rejected, sr, err := payments.Reject(ctx, staff, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DPRejected, rejected.Status)
	assert.EqualValues(t, 100000, sr.DP)

	_, _, err = payments.Approve(ctx, staff, second.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, sr, err = payments.RecordDirect(ctx, staff, sr.ID, DPClaimInput{Amount: 20000, Note: "tunai"})
	require.NoError(t, err)
	assert.EqualValues(t, 120000, sr.DP)
	assert.EqualValues(t, 130000, sr.TotalBiaya)

	_, err = payments.Delete(ctx, staff, first.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	sr, err = payments.Delete(ctx, admin, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 20000, sr.DP)
	assert.EqualValues(t, 230000, sr.TotalBiaya)

	list, err := payments.List(ctx, staff, sr.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 0})
	var verrs models.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestParallelApprovalsSumIntoDP(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	manager := actorOf(testutil.CreateUser(t, db, models.RoleManager))
	payments := NewPaymentService(db)
	sr := newRequest(t, db, staff)

	amounts := []int64{100000, 75000, 25000}
	claims := make([]*models.DPPayment, len(amounts))
	for i, amount := range amounts {
		claim, err := payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: amount})
		require.NoError(t, err)
		claims[i] = claim
	}

	deciders := []Actor{staff, manager}
	var wg sync.WaitGroup
	errs := make([]error, len(claims))
	for i, claim := range claims {
		wg.Add(1)
		go func(i int, claim *models.DPPayment) {
			defer wg.Done()
			_, _, errs[i] = payments.Approve(ctx, deciders[i%len(deciders)], claim.ID)
		}(i, claim)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var stored models.ServiceRequest
	require.NoError(t, db.First(&stored, "id = ?", sr.ID).Error)
	assert.EqualValues(t, 200000, stored.DP)

	var sum int64
	require.NoError(t, db.Model(&models.DPPayment{}).
		Where("service_request_id = ? AND status = ?", sr.ID, models.DPApproved).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error)
	assert.Equal(t, sum, stored.DP)
}

func TestParallelApproveSameClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	payments := NewPaymentService(db)
	sr := newRequest(t, db, staff)

	claim, err := payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 40000})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = payments.Approve(ctx, staff, claim.ID)
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	var stored models.ServiceRequest
	require.NoError(t, db.First(&stored, "id = ?", sr.ID).Error)
	assert.EqualValues(t, 40000, stored.DP)
}

func TestTrackNumberCollision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	existing := newRequest(t, db, staff)

	tests := []struct {
		name      string
		sequence  []string
		wantCalls int
		wantErr   bool
	}{
		{"retries after one collision", []string{existing.TrackNumber, "SRV-251015-Z2Z2Z"}, 2, false},
		{"gives up after five collisions", nil, trackNumberAttempts, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRequestService(db, NewSettingsService(db))
			calls := 0
			svc.trackNumber = func(time.Time) (string, error) {
				calls++
				if calls <= len(tt.sequence) {
					return tt.sequence[calls-1], nil
				}
				return existing.TrackNumber, nil
			}

			sr, err := svc.Create(ctx, staff, testutil.IntakeForm())
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
				assert.Nil(t, sr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "SRV-251015-Z2Z2Z", sr.TrackNumber)
			assert.NotEqual(t, existing.ID, sr.ID)
		})
	}
}

func TestDPSubmitIdempotencyKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	payments := NewPaymentService(db)
	sr := newRequest(t, db, staff)

	_, err := payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 10000, IdempotencyKey: "k-1"})
	require.NoError(t, err)
	_, err = payments.Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 10000, IdempotencyKey: "k-1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTechnicianAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	tech := actorOf(testutil.CreateUser(t, db, models.RoleTeknisi))
	outsider := actorOf(testutil.CreateUser(t, db, models.RoleTeknisi))
	svc := NewTechnicianService(db)
	requests := NewRequestService(db, NewSettingsService(db))
	sr := newRequest(t, db, staff)

	_, err := requests.Get(ctx, tech, sr.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Assign(ctx, staff, sr.ID, []string{" " + tech.Email, tech.Email})
	require.NoError(t, err)
	assert.Equal(t, []string{tech.Email}, []string(updated.AssignedTechnicians))

	_, err = requests.Get(ctx, tech, sr.ID)
	require.NoError(t, err)
	_, err = requests.Get(ctx, outsider, sr.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	items, total, err := requests.List(ctx, tech, RequestFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)
	_, total, err = requests.List(ctx, outsider, RequestFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	_, err = svc.Add(ctx, staff, sr.ID, "nobody@example.com")
	var verrs models.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.Add(ctx, tech, sr.ID, outsider.Email)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err = svc.Remove(ctx, staff, sr.ID, tech.Email)
	require.NoError(t, err)
	assert.Empty(t, updated.AssignedTechnicians)

	history, err := svc.History(ctx, staff, sr.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.History(ctx, outsider, sr.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.History(ctx, staff, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkLogDeleteRemovesReplies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	manager := actorOf(testutil.CreateUser(t, db, models.RoleManager))
	tech := actorOf(testutil.CreateUser(t, db, models.RoleTeknisi))
	sr := newRequest(t, db, staff)
	_, err := NewTechnicianService(db).Assign(ctx, staff, sr.ID, []string{tech.Email})
	require.NoError(t, err)
	svc := NewWorkLogService(db)

	parent, err := svc.Add(ctx, tech, sr.ID, WorkLogInput{Description: "Bongkar unit"})
	require.NoError(t, err)
	reply, err := svc.Add(ctx, staff, sr.ID, WorkLogInput{Description: "Oke", ParentID: &parent.ID})
	require.NoError(t, err)
	_, err = svc.Add(ctx, tech, sr.ID, WorkLogInput{Description: "Sudah", ParentID: &reply.ID})
	require.NoError(t, err)
	_, err = svc.Add(ctx, tech, sr.ID, WorkLogInput{Description: "Tes ulang"})
	require.NoError(t, err)

	_, err = svc.Add(ctx, tech, sr.ID, WorkLogInput{})
	var verrs models.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	assert.ErrorIs(t, svc.Delete(ctx, staff, parent.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, manager, parent.ID))

	logs, err := svc.List(ctx, staff, sr.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Tes ulang", logs[0].Description)

	require.NoError(t, svc.Delete(ctx, tech, logs[0].ID))
}

func TestBranchDeleteUnassigns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	admin := actorOf(testutil.CreateUser(t, db, models.RoleAdmin))
	svc := NewBranchService(db)

	branch, err := svc.Create(ctx, admin, BranchInput{Name: "Cabang Dago"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, BranchInput{Name: "Cabang Dago"})
	assert.ErrorIs(t, err, ErrConflict)

	member := testutil.CreateUser(t, db, models.RoleStaff)
	require.NoError(t, db.Model(member).Update("branch_id", branch.ID).Error)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, s := range summaries {
		if s.ID == branch.ID {
			found = true
			assert.EqualValues(t, 1, s.UserCount)
		}
	}
	assert.True(t, found)

	require.NoError(t, svc.Delete(ctx, admin, branch.ID))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", member.ID).Error)
	assert.Nil(t, reloaded.BranchID)
	assert.ErrorIs(t, svc.Delete(ctx, admin, branch.ID), ErrNotFound)
}

func TestFixRolesIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, models.RoleStaff)
	require.NoError(t, db.Model(u).Update("role", " Technician ").Error)
	svc := NewUserService(db)

	dry, err := svc.FixRoles(ctx, true)
	require.NoError(t, err)
	require.Len(t, dry.Changes, 1)
	assert.Equal(t, models.RoleTeknisi, dry.Changes[0].To)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, models.Role(" Technician "), stored.Role)

	report, err := svc.FixRoles(ctx, false)
	require.NoError(t, err)
	assert.Len(t, report.Changes, 1)

	again, err := svc.FixRoles(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, again.Changes)

	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, models.RoleTeknisi, stored.Role)
}

func TestLoginAndRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	admin := actorOf(testutil.CreateUser(t, db, models.RoleAdmin))
	svc := NewUserService(db)

	u, err := svc.Register(ctx, admin, RegisterInput{
		Name: "Rina", Email: "Rina@Example.com", Phone: "0811", Password: "rahasia123", Role: "Kasir",
	})
	require.NoError(t, err)
	assert.Equal(t, "rina@example.com", u.Email)
	assert.Equal(t, models.RoleStaff, u.Role)

	_, err = svc.Register(ctx, admin, RegisterInput{Name: "Rina", Email: "rina@example.com", Password: "rahasia123"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := svc.Login(ctx, "RINA@example.com", "", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "", "0811", "rahasia123")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "rina@example.com", "", "salah")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	inactive := false
	_, err = svc.Update(ctx, admin, u.ID, UserPatch{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "rina@example.com", "", "rahasia123")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Update(ctx, admin, admin.UserID, UserPatch{IsActive: &inactive})
	var verrs models.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestPublicView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	settings := NewSettingsService(db)
	payments := NewPaymentService(db)
	customerLogs := NewCustomerLogService(db)
	requests := NewRequestService(db, settings)
	views := NewPublicViewService(db, settings, payments, customerLogs)

	sr, view, err := requests.SubmitPublicIntake(ctx, testutil.IntakeForm())
	require.NoError(t, err)
	assert.Equal(t, models.IntakePublic, sr.IntakeChannel)
	require.NotNil(t, view)

	resolved, err := views.Resolve(ctx, view.Token)
	require.NoError(t, err)
	assert.Equal(t, sr.ID, resolved.ID)

	_, err = views.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	claim, err := views.SubmitDP(ctx, view.Token, DPClaimInput{Amount: 75000, ProofURLs: []string{"/uploads/bukti.png"}})
	require.NoError(t, err)
	assert.Equal(t, models.DPPending, claim.Status)
	assert.Equal(t, "public", claim.CreatedBy)

	entry, err := views.AddCustomerLog(ctx, view.Token, CustomerLogInput{Message: "Kapan selesai?"})
	require.NoError(t, err)
	assert.Equal(t, models.AuthorCustomer, entry.AuthorType)
	logs, err := views.CustomerLogs(ctx, view.Token)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	short := time.Hour
	expiring, err := views.Create(ctx, staff, sr.ID, &short)
	require.NoError(t, err)
	require.NotNil(t, expiring.ExpiresAt)
	views.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = views.Resolve(ctx, expiring.Token)
	assert.ErrorIs(t, err, ErrPublicViewExpired)
	views.now = time.Now

	require.NoError(t, views.Revoke(ctx, staff, view.Token))
	_, err = views.Resolve(ctx, view.Token)
	assert.ErrorIs(t, err, ErrPublicViewExpired)

	disabled := models.DefaultSecuritySettings()
	disabled.PublicViewEnabled = false
	admin := actorOf(testutil.CreateUser(t, db, models.RoleAdmin))
	_, err = settings.UpdateSecurity(ctx, admin, disabled)
	require.NoError(t, err)
	_, err = views.Resolve(ctx, expiring.Token)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
}

func TestDeleteServiceRequestRemovesChildren(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	staff := actorOf(testutil.CreateUser(t, db, models.RoleStaff))
	admin := actorOf(testutil.CreateUser(t, db, models.RoleAdmin))
	requests := NewRequestService(db, NewSettingsService(db))
	sr := newRequest(t, db, staff)

	_, err := NewPaymentService(db).Submit(ctx, staff, sr.ID, DPClaimInput{Amount: 5000})
	require.NoError(t, err)
	_, err = NewCustomerLogService(db).Add(ctx, staff, sr.ID, CustomerLogInput{Message: "Unit diterima"})
	require.NoError(t, err)

	assert.ErrorIs(t, requests.Delete(ctx, staff, sr.ID), ErrForbidden)
	require.NoError(t, requests.Delete(ctx, admin, sr.ID))

	for _, model := range []any{&models.StatusLog{}, &models.DPPayment{}, &models.CustomerLog{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("service_request_id = ?", sr.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
	_, err = requests.Get(ctx, staff, sr.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var activity []models.ActivityLog
	require.NoError(t, db.Where("target_id = ? AND action = ?", sr.ID.String(), "service_request.delete").Find(&activity).Error)
	assert.Len(t, activity, 1)
}

package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/libs/db"
)

// Postgres is the persistent store. Rule-validated writes run inside a
// transaction: the affected patient's non-cancelled rows are locked with
// SELECT ... FOR UPDATE before the guard/mutator sees them, and a partial
// unique index on (patient_email, date, time) WHERE status <> 'cancelled'
// backstops the no-double-booking invariant.
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const apptColumns = `id, doctor_id, doctor_name, specialty, patient_name, patient_email,
	date, time, duration_minutes, visit_type, status, pending_reason, admin_notes, created_at`

func (p *Postgres) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, COALESCE(phone, '')
		FROM users WHERE email = $1
	`, email))
}

func (p *Postgres) UserByID(ctx context.Context, id string) (model.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, COALESCE(phone, '')
		FROM users WHERE id = $1
	`, id))
}

func (p *Postgres) scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Phone)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

func (p *Postgres) Doctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, specialty, experience, rating, COALESCE(image_ref, ''),
			available_days, time_slots, active
		FROM doctors ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Experience, &d.Rating,
			&d.ImageRef, &d.AvailableDays, &d.TimeSlots, &d.Active); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) Doctor(ctx context.Context, id string) (model.Doctor, error) {
	var d model.Doctor
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, specialty, experience, rating, COALESCE(image_ref, ''),
			available_days, time_slots, active
		FROM doctors WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Specialty, &d.Experience, &d.Rating,
		&d.ImageRef, &d.AvailableDays, &d.TimeSlots, &d.Active)
	if err != nil {
		return model.Doctor{}, mapErr(err)
	}
	return d, nil
}

func (p *Postgres) PutDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialty, experience, rating, image_ref, available_days, time_slots, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			specialty = EXCLUDED.specialty,
			experience = EXCLUDED.experience,
			rating = EXCLUDED.rating,
			image_ref = EXCLUDED.image_ref,
			available_days = EXCLUDED.available_days,
			time_slots = EXCLUDED.time_slots,
			active = EXCLUDED.active
	`, d.ID, d.Name, d.Specialty, d.Experience, d.Rating, d.ImageRef, d.AvailableDays, d.TimeSlots, d.Active)
	if err != nil {
		return model.Doctor{}, err
	}
	return d, nil
}

func (p *Postgres) DeleteDoctor(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateAppointment(ctx context.Context, appt model.Appointment, guard Guard) (model.Appointment, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if guard != nil {
		existing, err := p.lockPatientAppointments(ctx, tx, appt.PatientEmail)
		if err != nil {
			return model.Appointment{}, err
		}
		if err := guard(existing); err != nil {
			return model.Appointment{}, err
		}
	}

	appt.ID = uuid.NewString()
	appt.Status = model.StatusPending
	appt.PendingReason = ""
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, doctor_id, doctor_name, specialty, patient_name, patient_email,
			 date, time, duration_minutes, visit_type, status, pending_reason, admin_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`, appt.ID, appt.DoctorID, appt.DoctorName, appt.Specialty, appt.PatientName, appt.PatientEmail,
		appt.Date, appt.Time, appt.DurationMinutes, appt.VisitType, appt.Status, appt.PendingReason,
		appt.AdminNotes).Scan(&appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (p *Postgres) Appointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(p.pool.QueryRow(ctx, `
		SELECT `+apptColumns+` FROM appointments WHERE id = $1
	`, id))
	if err != nil {
		return model.Appointment{}, mapErr(err)
	}
	return a, nil
}

func (p *Postgres) Appointments(ctx context.Context, f Filter) ([]model.Appointment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE ($1 = '' OR doctor_id = $1)
			AND ($2 = '' OR patient_email = $2)
			AND ($3 = '' OR date >= $3)
			AND ($4 = '' OR date <= $4)
		ORDER BY date, time, id
	`, f.DoctorID, f.PatientEmail, f.DateFrom, f.DateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateAppointment(ctx context.Context, id string, mutate Mutate) (model.Appointment, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+apptColumns+` FROM appointments WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		return model.Appointment{}, mapErr(err)
	}

	existing, err := p.lockPatientAppointments(ctx, tx, current.PatientEmail)
	if err != nil {
		return model.Appointment{}, err
	}

	updated, err := mutate(current, existing)
	if err != nil {
		return model.Appointment{}, err
	}
	if updated.ID != current.ID ||
		updated.DoctorID != current.DoctorID ||
		updated.PatientEmail != current.PatientEmail {
		return model.Appointment{}, ErrPartiesImmutable
	}

	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET date = $2, time = $3, duration_minutes = $4, visit_type = $5,
			status = $6, pending_reason = $7, admin_notes = $8
		WHERE id = $1
	`, updated.ID, updated.Date, updated.Time, updated.DurationMinutes, updated.VisitType,
		updated.Status, updated.PendingReason, updated.AdminNotes)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	updated.CreatedAt = current.CreatedAt
	return updated, nil
}

func (p *Postgres) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) lockPatientAppointments(ctx context.Context, tx pgx.Tx, patientEmail string) ([]model.Appointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE patient_email = $1 AND status <> 'cancelled'
		ORDER BY id
		FOR UPDATE
	`, patientEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.DoctorName, &a.Specialty, &a.PatientName, &a.PatientEmail,
		&a.Date, &a.Time, &a.DurationMinutes, &a.VisitType, &a.Status, &a.PendingReason,
		&a.AdminNotes, &a.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// IsUniqueViolation reports whether err is the partial unique index firing on
// a same-patient same-slot insert.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

var _ Store = (*Postgres)(nil)

package maintenancerepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// MaintenanceRepository persiste os registros de manutenção e os laudos de
// dano. As duas máquinas de estado estreitas vivem aqui; o status do
// EQUIPAMENTO nunca é escrito por este repositório — isso é papel exclusivo
// do Coordenador de Mutações.
type MaintenanceRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewMaintenanceRepository cria e retorna uma nova instância do Repositório de Manutenção.
func NewMaintenanceRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *MaintenanceRepository {
	return &MaintenanceRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const maintenanceColumns = `id, equipment_id, type, status, priority, description,
        scheduled_for, started_at, completed_at, cost, vendor_id, created_by, created_at, updated_at`

func scanMaintenance(row interface {
	Scan(dest ...interface{}) error
}) (domain.MaintenanceRecord, error) {
	var m domain.MaintenanceRecord
	var vendorID sql.NullString
	err := row.Scan(
		&m.ID, &m.EquipmentID, &m.Type, &m.Status, &m.Priority, &m.Description,
		&m.ScheduledFor, &m.StartedAt, &m.CompletedAt, &m.Cost, &vendorID,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	m.VendorID = vendorID.String
	return m, err
}

// SaveMaintenance insere um novo registro de manutenção.
func (r *MaintenanceRepository) SaveMaintenance(ctx context.Context, m domain.MaintenanceRecord) (domain.MaintenanceRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now

	const insertSQL = `INSERT INTO maintenance_records
        (id, equipment_id, type, status, priority, description,
         scheduled_for, started_at, completed_at, cost, vendor_id, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		m.ID, m.EquipmentID, m.Type, m.Status, m.Priority, m.Description,
		m.ScheduledFor, m.StartedAt, m.CompletedAt, m.Cost, nullable(m.VendorID),
		m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir registro de manutenção no DB.", err)
		return domain.MaintenanceRecord{}, apperror.NewDBError("Falha ao inserir registro de manutenção", err)
	}
	return m, nil
}

// FindMaintenanceByID busca um registro de manutenção pelo ID.
func (r *MaintenanceRepository) FindMaintenanceByID(ctx context.Context, id string) (domain.MaintenanceRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = $1`
	m, err := scanMaintenance(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.MaintenanceRecord{}, apperror.NewNotFoundError(fmt.Sprintf("Registro de manutenção %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar registro de manutenção no DB.", err)
		return domain.MaintenanceRecord{}, apperror.NewDBError("Falha ao buscar registro de manutenção", err)
	}
	return m, nil
}

// UpdateMaintenance grava a transição de status e os campos mutáveis do registro.
func (r *MaintenanceRepository) UpdateMaintenance(ctx context.Context, m domain.MaintenanceRecord) (domain.MaintenanceRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	m.UpdatedAt = time.Now()
	const updateSQL = `UPDATE maintenance_records
        SET status = $1, started_at = $2, completed_at = $3, cost = $4, updated_at = $5
        WHERE id = $6`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		m.Status, m.StartedAt, m.CompletedAt, m.Cost, m.UpdatedAt, m.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar registro de manutenção no DB.", err)
		return domain.MaintenanceRecord{}, apperror.NewDBError("Falha ao atualizar registro de manutenção", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.MaintenanceRecord{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		return domain.MaintenanceRecord{}, apperror.NewNotFoundError(fmt.Sprintf("Registro de manutenção %s não encontrado.", m.ID))
	}
	return m, nil
}

// FindMaintenanceByEquipment lista os registros de manutenção de um equipamento.
func (r *MaintenanceRepository) FindMaintenanceByEquipment(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records
              WHERE equipment_id = $1 ORDER BY scheduled_for DESC`
	rows, err := r.DB.QueryContext(ctxTimeout, query, equipmentID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar registros de manutenção", err)
	}
	defer rows.Close()

	var records []domain.MaintenanceRecord
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear registro de manutenção", err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar registros de manutenção", err)
	}
	return records, nil
}

const damageColumns = `id, equipment_id, severity, status, description, maintenance_id,
        repair_cost, reported_by, reported_at, resolved_at, created_at, updated_at`

func scanDamage(row interface {
	Scan(dest ...interface{}) error
}) (domain.DamageReport, error) {
	var d domain.DamageReport
	var maintenanceID sql.NullString
	err := row.Scan(
		&d.ID, &d.EquipmentID, &d.Severity, &d.Status, &d.Description, &maintenanceID,
		&d.RepairCost, &d.ReportedBy, &d.ReportedAt, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	d.MaintenanceID = maintenanceID.String
	return d, err
}

// SaveDamage insere um novo laudo de dano.
func (r *MaintenanceRepository) SaveDamage(ctx context.Context, d domain.DamageReport) (domain.DamageReport, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now()
	d.ID = uuid.NewString()
	d.ReportedAt = now
	d.CreatedAt = now
	d.UpdatedAt = now

	const insertSQL = `INSERT INTO damage_reports
        (id, equipment_id, severity, status, description, maintenance_id,
         repair_cost, reported_by, reported_at, resolved_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		d.ID, d.EquipmentID, d.Severity, d.Status, d.Description, nullable(d.MaintenanceID),
		d.RepairCost, d.ReportedBy, d.ReportedAt, d.ResolvedAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir laudo de dano no DB.", err)
		return domain.DamageReport{}, apperror.NewDBError("Falha ao inserir laudo de dano", err)
	}
	return d, nil
}

// FindDamageByID busca um laudo de dano pelo ID.
func (r *MaintenanceRepository) FindDamageByID(ctx context.Context, id string) (domain.DamageReport, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + damageColumns + ` FROM damage_reports WHERE id = $1`
	d, err := scanDamage(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.DamageReport{}, apperror.NewNotFoundError(fmt.Sprintf("Laudo de dano %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar laudo de dano no DB.", err)
		return domain.DamageReport{}, apperror.NewDBError("Falha ao buscar laudo de dano", err)
	}
	return d, nil
}

// UpdateDamage grava a transição de status e os campos mutáveis do laudo.
func (r *MaintenanceRepository) UpdateDamage(ctx context.Context, d domain.DamageReport) (domain.DamageReport, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	d.UpdatedAt = time.Now()
	const updateSQL = `UPDATE damage_reports
        SET status = $1, maintenance_id = $2, repair_cost = $3, resolved_at = $4, updated_at = $5
        WHERE id = $6`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		d.Status, nullable(d.MaintenanceID), d.RepairCost, d.ResolvedAt, d.UpdatedAt, d.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar laudo de dano no DB.", err)
		return domain.DamageReport{}, apperror.NewDBError("Falha ao atualizar laudo de dano", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.DamageReport{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		return domain.DamageReport{}, apperror.NewNotFoundError(fmt.Sprintf("Laudo de dano %s não encontrado.", d.ID))
	}
	return d, nil
}

// FindDamageByEquipment lista os laudos de dano de um equipamento.
func (r *MaintenanceRepository) FindDamageByEquipment(ctx context.Context, equipmentID string) ([]domain.DamageReport, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + damageColumns + ` FROM damage_reports
              WHERE equipment_id = $1 ORDER BY reported_at DESC`
	rows, err := r.DB.QueryContext(ctxTimeout, query, equipmentID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar laudos de dano", err)
	}
	defer rows.Close()

	var reports []domain.DamageReport
	for rows.Next() {
		d, err := scanDamage(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear laudo de dano", err)
		}
		reports = append(reports, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar laudos de dano", err)
	}
	return reports, nil
}

// nullable converte string vazia em NULL para colunas com FK opcional.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

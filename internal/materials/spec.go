package materials

import (
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
)

// SpecFromJob snapshots the technical fields of a job row. A job without a
// positive panel count or without any selected main component cannot produce
// a meaningful bill of materials.
func SpecFromJob(job models.InstallationJob) (JobSpec, error) {
	if job.PanelCount <= 0 {
		return JobSpec{}, pkgerrors.New(pkgerrors.CodeValidation, "job has no panel count").
			WithDetails(map[string]any{"jobId": job.ID, "panelCount": job.PanelCount})
	}
	if job.SystemSizeKw.IsNegative() {
		return JobSpec{}, pkgerrors.New(pkgerrors.CodeValidation, "job system size is negative").
			WithDetails(map[string]any{"jobId": job.ID})
	}
	comps := job.SelectedComponents
	if comps.Panel == nil && comps.Inverter == nil && comps.Battery == nil {
		return JobSpec{}, pkgerrors.New(pkgerrors.CodeValidation, "job has no selected components").
			WithDetails(map[string]any{"jobId": job.ID})
	}

	spec := JobSpec{
		JobID:         job.ID,
		SystemSizeKw:  job.SystemSizeKw,
		PanelCount:    job.PanelCount,
		InverterModel: job.InverterModel,
		Components:    comps,
	}
	if job.BatteryCapacityKwh.Valid {
		spec.BatteryCapacityKwh = job.BatteryCapacityKwh.Decimal
	}
	return spec, nil
}

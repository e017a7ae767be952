package routes

import (
	"log"

	"gorm.io/gorm"

	"trainingku_backend/internals/configs"
	database "trainingku_backend/internals/databases"
	"trainingku_backend/internals/features/assessments/cache"
	"trainingku_backend/internals/features/assessments/jobs"
	"trainingku_backend/internals/features/assessments/repository"
	"trainingku_backend/internals/features/assessments/service"
)

// BuildAssessmentService merakit service assessment dari koneksi yang sudah diinisialisasi.
// Redis/asynq opsional: tanpa keduanya cache dilewati dan hook terjadwal dimatikan.
func BuildAssessmentService(db *gorm.DB) *service.Service {
	store := repository.NewGormStore(db, configs.App.DBTxTimeout)
	templates := cache.NewTemplateCache(database.RedisClient, repository.NewGormTemplateReader(db), configs.App.TemplateCacheTTL)
	directory := repository.NewGormDirectory(db)

	var sched service.Scheduler
	if database.AsynqClient != nil {
		sched = jobs.NewAsynqScheduler(database.AsynqClient, configs.App.PDFServiceURL != "")
	} else {
		log.Println("[INFO] Asynq not available, event start relies on the daily sweep")
	}

	return service.NewService(store, templates, directory, sched, configs.App.Location())
}

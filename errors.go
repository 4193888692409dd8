package folio

import "errors"

var (
	ErrConfigSectionNotFound = errors.New("config section not found")
	ErrConfigNil             = errors.New("config is nil")
	ErrConfigNotPointer      = errors.New("config must be a pointer to a struct")
	ErrConfigFeederError     = errors.New("config feeder error")
	ErrConfigValidation      = errors.New("config validation failed")

	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrServiceNotFound          = errors.New("service not found")
	ErrServiceIncompatible      = errors.New("service cannot be assigned to target")
	ErrServiceNil               = errors.New("service is nil")
	ErrServiceWrongInterface    = errors.New("service doesn't satisfy required interface")
	ErrTargetNotPointer         = errors.New("target must be a non-nil pointer")

	ErrCircularDependency      = errors.New("circular dependency detected")
	ErrModuleDependencyMissing = errors.New("module depends on non-existent module")
	ErrRequiredServiceNotFound = errors.New("required service not found for module")

	ErrNoSubjectForEventEmission = errors.New("no subject available for event emission")
)

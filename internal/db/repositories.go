package db

// Repositories provides access to all database repositories
type Repositories struct {
	Channels         *ChannelRepository
	Schedules        *ScheduleRepository
	SlotStates       *SlotStateRepository
	GeneratedItems   *GeneratedItemRepository
	Catalog          *CatalogRepository
	FillerLists      *FillerListRepository
	CustomShows      *CustomShowRepository
	SmartCollections *SmartCollectionRepository
	Settings         *SettingsRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Channels:         NewChannelRepository(db),
		Schedules:        NewScheduleRepository(db),
		SlotStates:       NewSlotStateRepository(db),
		GeneratedItems:   NewGeneratedItemRepository(db),
		Catalog:          NewCatalogRepository(db),
		FillerLists:      NewFillerListRepository(db),
		CustomShows:      NewCustomShowRepository(db),
		SmartCollections: NewSmartCollectionRepository(db),
		Settings:         NewSettingsRepository(db),
	}
}

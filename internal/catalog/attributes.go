package catalog

// Наборы характеристик зависят от категории товара, поэтому каждая категория
// описана своим типом, а общий доступ идёт через интерфейс Attributes.

type AttributeKind string

const (
	KindPhone      AttributeKind = "phone"
	KindTelevision AttributeKind = "television"
	KindFlashDrive AttributeKind = "flash_drive"
)

type Attributes interface {
	Kind() AttributeKind
}

type Phone struct {
	ScreenSize     float64 `json:"screen_size"`
	Resolution     string  `json:"resolution"`
	InternalMemory int     `json:"internal_memory"`
	Color          string  `json:"color"`
}

func (Phone) Kind() AttributeKind { return KindPhone }

type Television struct {
	ScreenSize float64 `json:"screen_size"`
	Resolution string  `json:"resolution"`
	SmartTV    bool    `json:"smart_tv"`
}

func (Television) Kind() AttributeKind { return KindTelevision }

type FlashDrive struct {
	Color    string `json:"color"`
	Capacity int    `json:"capacity"`
}

func (FlashDrive) Kind() AttributeKind { return KindFlashDrive }

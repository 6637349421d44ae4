package lexicon

import (
	"sync"

	"github.com/ppiankov/intake/internal/model"
)

const (
	departmentPolice    = "Полиция"
	departmentEmergency = "МЧС"
	departmentAmbulance = "Скорая"
)

// defaultEntries is the built-in Russian category table, in tie-break order.
var defaultEntries = []Entry{
	{
		Category:       model.CategoryTheft,
		Keywords:       []string{"украл", "украли", "вор", "кража", "грабеж", "похитил", "похитили"},
		DefaultUrgency: model.UrgencyMedium,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryAssault,
		Keywords:       []string{"бьет", "избивает", "напал", "драка", "ударил", "ударили", "избиение", "нападение"},
		DefaultUrgency: model.UrgencyHigh,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryDomestic,
		Keywords:       []string{"муж", "жена", "семья", "домашний", "супруг", "супруга", "семейный", "бытовой"},
		DefaultUrgency: model.UrgencyHigh,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryNoise,
		Keywords:       []string{"шум", "кричит", "громко", "музыка", "ор", "крик", "шумит"},
		DefaultUrgency: model.UrgencyLow,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryTraffic,
		Keywords:       []string{"дтп", "авария", "машина", "автомобиль", "водитель", "пешеход", "светофор", "пдд"},
		DefaultUrgency: model.UrgencyHigh,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryPublicOrder,
		Keywords:       []string{"пьяный", "дебош", "хулиган", "нарушение", "порядок", "общественный"},
		DefaultUrgency: model.UrgencyMedium,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryMissingPerson,
		Keywords:       []string{"пропал", "пропала", "исчез", "потерялся", "не вернулся", "пропал человек"},
		DefaultUrgency: model.UrgencyHigh,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryVandalism,
		Keywords:       []string{"разбил", "разрушил", "испортил", "вандализм", "граффити", "повредил"},
		DefaultUrgency: model.UrgencyMedium,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryFraud,
		Keywords:       []string{"мошенник", "обман", "афера", "кибер", "карта", "деньги", "банк"},
		DefaultUrgency: model.UrgencyMedium,
		Department:     departmentPolice,
	},
	{
		Category:       model.CategoryFire,
		Keywords:       []string{"пожар", "горит", "дым", "пламя", "огонь", "загорелся"},
		DefaultUrgency: model.UrgencyCritical,
		Department:     departmentEmergency,
	},
	{
		Category:       model.CategoryMedical,
		Keywords:       []string{"больно", "ранен", "травма", "скорая", "врач", "медицинская", "кровь", "сердце"},
		DefaultUrgency: model.UrgencyCritical,
		Department:     departmentAmbulance,
	},
	{
		Category:       model.CategoryOther,
		DefaultUrgency: model.UrgencyLow,
		Department:     departmentPolice,
	},
}

var defaultDanger = []string{
	"оружие", "нож", "пистолет", "револьвер", "автомат", "граната",
	"угрожает", "убить", "смерть", "опасность", "угроза", "критический",
}

var defaultWeapon = []string{
	"оружие", "нож", "пистолет", "револьвер", "автомат", "граната",
	"бита", "дубинка", "топор", "молоток", "кастет",
}

// Immediacy terms are kept apart from danger terms: "сейчас" alone is not a threat.
var defaultImmediacy = []string{
	"сейчас", "немедленно", "сию минуту", "прямо сейчас", "в данный момент",
}

var defaultLocale = Locale{
	Language:    "ru",
	Unspecified: "не указан",
	Aliases:     []string{"не указано", "not specified", "unspecified", "unknown", "көрсетілмеген", "неизвестно"},
	NearPrefix:  "около ",
	StreetForm:  "ул. %s, д. %s",
	HouseForm:   "д. %s",
	Summary:     "Информация отсутствует",
	Notes: Notes{
		ManualReview:      "Категория определена как 'other' - требуется ручная проверка",
		AddressMissing:    "Адрес не указан - требуется уточнение",
		PeopleUnknown:     "Количество участников не указано",
		CurrentDanger:     "Текущая опасность - требуется срочное реагирование",
		Weapons:           "Наличие оружия - требуется особое внимание",
		CoercionFailure:   "Поле %s: значение %q не распознано, использовано значение по умолчанию",
		UnparseableOutput: "Черновик классификации не разобран - классификация выполнена по правилам",
	},
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the shared built-in Russian lexicon
func Default() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := New(defaultEntries, defaultDanger, defaultWeapon, defaultImmediacy, defaultLocale)
		if err != nil {
			panic("lexicon: built-in tables are invalid: " + err.Error())
		}
		defaultLex = lex
	})
	return defaultLex
}

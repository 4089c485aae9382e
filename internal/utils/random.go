package utils

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/route-roster/backend/internal/domain"
)

var commonFirstNames = []string{
	"Jan", "Piotr", "Krzysztof", "Tomasz", "Pawel", "Michal", "Marcin", "Adam",
	"Anna", "Maria", "Katarzyna", "Agnieszka", "Ewa", "Magdalena", "Joanna", "Zofia",
}
var commonLastNames = []string{
	"Nowak", "Kowalski", "Wisniewski", "Wojcik", "Kowalczyk", "Kaminski", "Lewandowski",
	"Zielinski", "Szymanski", "Wozniak", "Dabrowski", "Kozlowski", "Jankowski", "Mazur",
}
var cityNames = []string{
	"Gdansk", "Gdynia", "Sopot", "Torun", "Bydgoszcz", "Olsztyn", "Elblag", "Slupsk",
}

func GenerateRandomName() (string, string) {
	return commonFirstNames[rand.Intn(len(commonFirstNames))], commonLastNames[rand.Intn(len(commonLastNames))]
}

func GenerateRandomCityName() string {
	return cityNames[rand.Intn(len(cityNames))] + " " + GenerateRandomID(0, 2)
}

var partTimes = []float64{1, 1, 1, 0.75, 0.5}

// GenerateRandomEmployee returns a mostly full-time employee of cityID.
func GenerateRandomEmployee(cityID int64) *domain.Employee {
	first, last := GenerateRandomName()
	return &domain.Employee{
		FirstName: first,
		LastName:  last,
		PartTime:  partTimes[rand.Intn(len(partTimes))],
		CityID:    cityID,
	}
}

// GenerateRandomShift returns one segment of 2 to 6 hours starting between from and from+3.
func GenerateRandomShift(from int) domain.Segment {
	startHour := from + rand.Intn(4)
	startMinute := rand.Intn(4) * 15
	length := rand.Intn(5) + 2

	return domain.Segment{
		Start: fmt.Sprintf("%02d:%02d", startHour%24, startMinute),
		End:   fmt.Sprintf("%02d:%02d", (startHour+length)%24, startMinute),
	}
}

// GenerateRandomWorkingHours encodes the segments the way routes store them.
func GenerateRandomWorkingHours(segments ...domain.Segment) []byte {
	b, _ := json.Marshal(domain.WorkingHours{Segments: segments})
	return b
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var digits = "0123456789"

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// Fisher-Yates shuffle of a copy of ids
func ShuffleIDs(ids []int64) []int64 {
	cp := append([]int64{}, ids...)
	for i := len(cp) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp
}

package domain

import (
	"fmt"
	"math"
)

const (
	MinStars = 1
	MaxStars = 5

	MinRating = 0.0
	MaxRating = 5.0
)

// RatingPolicy - закрытый набор способов вычисления рейтинга фильма.
// Новый способ = новая константа + ветка в Calculate.
type RatingPolicy string

const (
	// RatingPolicyBasic - среднее арифметическое звезд.
	RatingPolicyBasic RatingPolicy = "BASIC"
	// RatingPolicyMedian - медиана звезд, устойчива к единичным выбросам.
	RatingPolicyMedian RatingPolicy = "MEDIAN"
)

var ratingPoliciesByCode = map[string]RatingPolicy{
	string(RatingPolicyBasic):  RatingPolicyBasic,
	string(RatingPolicyMedian): RatingPolicyMedian,
}

func ParseRatingPolicy(code string) (RatingPolicy, bool) {
	p, ok := ratingPoliciesByCode[code]
	return p, ok
}

func (p RatingPolicy) Valid() bool {
	_, ok := ratingPoliciesByCode[string(p)]
	return ok
}

// StarHistogram - распределение оценок фильма: звезды -> количество отзывов.
type StarHistogram map[int]int64

// Total возвращает число отзывов.
func (h StarHistogram) Total() int64 {
	var n int64
	for _, c := range h {
		n += c
	}
	return n
}

// Calculate вычисляет рейтинг по распределению оценок.
// Без отзывов рейтинг равен 0.0. Результат округляется до одного знака.
func (p RatingPolicy) Calculate(h StarHistogram) (float64, error) {
	total := h.Total()
	if total == 0 {
		if !p.Valid() {
			return 0, invalid("rating_policy", fmt.Sprintf("unknown policy %q", string(p)))
		}
		return 0, nil
	}

	switch p {
	case RatingPolicyBasic:
		return roundToTenth(mean(h, total)), nil
	case RatingPolicyMedian:
		return roundToTenth(median(h, total)), nil
	default:
		return 0, invalid("rating_policy", fmt.Sprintf("unknown policy %q", string(p)))
	}
}

func mean(h StarHistogram, total int64) float64 {
	var sum int64
	for star, count := range h {
		sum += int64(star) * count
	}
	return float64(sum) / float64(total)
}

// median проходит звезды по возрастанию и берет элементы с позиций
// (n-1)/2 и n/2 - для нечетного n это один и тот же элемент.
func median(h StarHistogram, total int64) float64 {
	lowPos, highPos := (total-1)/2, total/2
	var low, high int
	var seen int64
	for star := MinStars; star <= MaxStars; star++ {
		count := h[star]
		if count == 0 {
			continue
		}
		if low == 0 && seen+count > lowPos {
			low = star
		}
		if seen+count > highPos {
			high = star
			break
		}
		seen += count
	}
	return float64(low+high) / 2
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

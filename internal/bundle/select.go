package bundle

import (
	"path"
	"sort"
	"strings"
)

// DefaultWanted — файлы клиента GlobalProtect, которые разбираются из архива
var DefaultWanted = []string{
	"pangps.txt",
	"pangpa.txt",
	"pangpa.log.old",
	"panplapprovider.txt",
	"pan_gp_event.txt",
}

// fallbackSuffix — если ни одного нужного файла нет, берём всё, что похоже на PanGPS.txt
const fallbackSuffix = "pangps.txt"

// selectNames выбирает нужные файлы и сортирует их без учёта регистра.
// Имена могут содержать "/" (пути внутри архива).
func selectNames(names []string, wanted []string) []string {
	if len(wanted) == 0 {
		wanted = DefaultWanted
	}
	set := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		set[strings.ToLower(w)] = struct{}{}
	}

	var picked []string
	for _, n := range names {
		if _, ok := set[strings.ToLower(path.Base(n))]; ok {
			picked = append(picked, n)
		}
	}
	if len(picked) == 0 {
		for _, n := range names {
			if strings.HasSuffix(strings.ToLower(n), fallbackSuffix) {
				picked = append(picked, n)
			}
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return strings.ToLower(picked[i]) < strings.ToLower(picked[j])
	})
	return picked
}

package i18n

import (
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/rottengram/rottenshield/resources"
)

const translationsFile = "i18n/translations.yml"

// DefaultLanguage is the language of the message keys themselves.
const DefaultLanguage = "en"

var languageNames = map[string]string{
	"en": "English",
	"it": "Italian",
}

var state = struct {
	once         sync.Once
	translations map[string]map[string]string
}{}

func load() {
	state.translations = map[string]map[string]string{}
	content, err := resources.FS.ReadFile(translationsFile)
	if err != nil {
		log.WithError(err).Errorln("cant load i18n")
		return
	}
	dict := map[string]map[string]string{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		log.WithError(err).Errorln("cant unmarshal i18n")
		return
	}
	state.translations = dict
}

// Get returns key translated to lang, or key itself when no translation exists.
func Get(key, lang string) string {
	if strings.EqualFold(lang, DefaultLanguage) || lang == "" {
		return key
	}
	state.once.Do(load)
	if res, ok := state.translations[key][strings.ToUpper(lang)]; ok && res != "" {
		return res
	}
	log.Tracef(`no translation for key "%s"`, key)
	return key
}

// GetLanguagesList returns the supported language codes, sorted.
func GetLanguagesList() []string {
	codes := make([]string, 0, len(languageNames))
	for code := range languageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func IsSupported(code string) bool {
	_, ok := languageNames[strings.ToLower(code)]
	return ok
}

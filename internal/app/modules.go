package app

import (
	"github.com/vk/addonkit/internal/env"
	"github.com/vk/addonkit/modules/hr"
	"github.com/vk/addonkit/modules/hr_skills"
	"github.com/vk/addonkit/modules/web"
)

// coreModules is the definitive list of all modules that are compiled into
// the addonkit binary.
var coreModules = []env.Module{
	&web.Module{},
	&hr.Module{},
	&hr_skills.Module{},
}

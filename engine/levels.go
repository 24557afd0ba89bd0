package engine

import (
	"fireworks/domain/entities"
)

// Levels are the upgrade levels that parametrize the engine
type Levels struct {
	Upgrades entities.UpgradeLevels
	Prestige entities.PrestigeLevels
}

// LevelsFor copies the levels of an account. A nil account yields zero levels.
func LevelsFor(account *entities.Account) Levels {
	if account == nil {
		return Levels{Upgrades: entities.UpgradeLevels{}, Prestige: entities.PrestigeLevels{}}
	}
	return Levels{
		Upgrades: account.UpgradeLevels.Clone(),
		Prestige: account.PrestigeUpgradeLevels.Clone(),
	}
}

func (l Levels) upgrade(kind entities.UpgradeKind) int {
	return l.Upgrades.Get(kind)
}

func (l Levels) prestige(kind entities.PrestigeUpgradeKind) int {
	return l.Prestige.Get(kind)
}

package vfs

import "github.com/codex-vfs/vfsh/internal/journal"

// logicAdapter narrows Vfs to logic.VFSWriter's {Write, Read} shape,
// avoiding a vfs<->logic import cycle (logic never imports this package).
type logicAdapter struct{ v *Vfs }

func (a logicAdapter) Write(path string, content string, overlayID int) error {
	return a.v.WritePath(path, content, overlayID)
}

func (a logicAdapter) Read(path string) (string, error) {
	return a.v.ReadPath(path)
}

const defaultRulesBase = "/plan/rules"

// SaveRules persists the logic engine's rules under /plan/rules in
// overlay id (§4.J persistence).
func (v *Vfs) SaveRules(overlayID int) error {
	if err := v.LogicEngine.SaveRulesToVfs(logicAdapter{v}, defaultRulesBase, overlayID); err != nil {
		return err
	}
	v.recordJournal(journal.EventRulesSaved, &overlayID, defaultRulesBase)
	return nil
}

// LoadRules reloads the logic engine's rules from /plan/rules.
func (v *Vfs) LoadRules() error {
	if err := v.LogicEngine.LoadRulesFromVfs(logicAdapter{v}, defaultRulesBase); err != nil {
		return err
	}
	v.recordJournal(journal.EventRulesLoaded, nil, defaultRulesBase)
	return nil
}

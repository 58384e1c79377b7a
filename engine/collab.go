package engine

import "time"

type nopMarkup struct{}

func (nopMarkup) LoadMarkup([]byte) error { return nil }

type nopScripts struct{}

func (nopScripts) LoadScript([]byte) error { return nil }

type nopMusic struct{}

func (nopMusic) FadeOut(time.Duration) {}
func (nopMusic) Preload([]string)      {}

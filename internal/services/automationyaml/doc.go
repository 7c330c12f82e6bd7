// Package automationyaml finds automation definitions in the Home Assistant
// configuration directory: automations.yaml and YAML files under packages/.
package automationyaml

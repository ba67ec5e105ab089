package shell

import (
	"fmt"
	"io"
)

// Variables the activation scripts maintain for deactivation
const (
	VarsVar             = "SHELLENV_VARS"
	OldPathVar          = "SHELLENV_OLD_PATH"
	OldPkgConfigPathVar = "SHELLENV_OLD_PKG_CONFIG_PATH"
)

// WriteHook writes the shell integration for format. It wraps the shellenv
// binary in a function providing "activate" and "deactivate" in the current
// shell and marks the prompt while an environment is active.
func WriteHook(w io.Writer, format Format) error {
	var hook string
	switch format {
	case Bash:
		hook = bashHook
	case Zsh:
		hook = zshHook
	case Fish:
		hook = fishHook
	default:
		return fmt.Errorf("no shell integration for %s (supported: bash, zsh, fish)", format)
	}

	_, err := io.WriteString(w, hook)
	return err
}

const bashHook = `# shellenv shell integration
# Add this to your ~/.bashrc or ~/.bash_profile:
# eval "$(shellenv hook bash)"

shellenv() {
    case "$1" in
    activate)
        shift
        local __shellenv_script
        __shellenv_script="$(command shellenv env --format bash "$@")" || return $?
        eval "$__shellenv_script"
        ;;
    deactivate)
        if [[ -n "$SHELLENV_ACTIVE" ]]; then
            local __shellenv_var
            for __shellenv_var in $SHELLENV_VARS; do
                unset "$__shellenv_var"
            done
            export PATH="$SHELLENV_OLD_PATH"
            if [[ -n "$SHELLENV_OLD_PKG_CONFIG_PATH" ]]; then
                export PKG_CONFIG_PATH="$SHELLENV_OLD_PKG_CONFIG_PATH"
            else
                unset PKG_CONFIG_PATH
            fi
            unset SHELLENV_ACTIVE SHELLENV_VARS SHELLENV_OLD_PATH SHELLENV_OLD_PKG_CONFIG_PATH
        fi
        ;;
    *)
        command shellenv "$@"
        ;;
    esac
}

__shellenv_prompt_command() {
    PS1="${PS1#\(shellenv\) }"
    if [[ -n "$SHELLENV_ACTIVE" ]]; then
        PS1="(shellenv) $PS1"
    fi
}

if [[ -z "$PROMPT_COMMAND" ]]; then
    PROMPT_COMMAND="__shellenv_prompt_command"
else
    PROMPT_COMMAND="__shellenv_prompt_command;$PROMPT_COMMAND"
fi
`

const zshHook = `# shellenv shell integration for Zsh
# Add this to your ~/.zshrc:
# eval "$(shellenv hook zsh)"

shellenv() {
    case "$1" in
    activate)
        shift
        local __shellenv_script
        __shellenv_script="$(command shellenv env --format zsh "$@")" || return $?
        eval "$__shellenv_script"
        ;;
    deactivate)
        if [[ -n "$SHELLENV_ACTIVE" ]]; then
            local __shellenv_var
            for __shellenv_var in ${=SHELLENV_VARS}; do
                unset "$__shellenv_var"
            done
            export PATH="$SHELLENV_OLD_PATH"
            if [[ -n "$SHELLENV_OLD_PKG_CONFIG_PATH" ]]; then
                export PKG_CONFIG_PATH="$SHELLENV_OLD_PKG_CONFIG_PATH"
            else
                unset PKG_CONFIG_PATH
            fi
            unset SHELLENV_ACTIVE SHELLENV_VARS SHELLENV_OLD_PATH SHELLENV_OLD_PKG_CONFIG_PATH
        fi
        ;;
    *)
        command shellenv "$@"
        ;;
    esac
}

__shellenv_precmd() {
    PROMPT="${PROMPT#\%F\{green\}\(shellenv\)\%f }"
    if [[ -n "$SHELLENV_ACTIVE" ]]; then
        PROMPT="%F{green}(shellenv)%f $PROMPT"
    fi
}

autoload -Uz add-zsh-hook
add-zsh-hook precmd __shellenv_precmd
`

const fishHook = `# shellenv shell integration for Fish
# Add this to your ~/.config/fish/config.fish:
# shellenv hook fish | source

function shellenv
    switch "$argv[1]"
        case activate
            set -l script (command shellenv env --format fish $argv[2..-1])
            or return $status
            printf '%s\n' $script | source
        case deactivate
            if set -q SHELLENV_ACTIVE
                for var in $SHELLENV_VARS
                    set -e $var
                end
                set -gx PATH $SHELLENV_OLD_PATH
                if test -n "$SHELLENV_OLD_PKG_CONFIG_PATH"
                    set -gx PKG_CONFIG_PATH $SHELLENV_OLD_PKG_CONFIG_PATH
                else
                    set -e PKG_CONFIG_PATH
                end
                set -e SHELLENV_ACTIVE SHELLENV_VARS SHELLENV_OLD_PATH SHELLENV_OLD_PKG_CONFIG_PATH
            end
        case '*'
            command shellenv $argv
    end
end

functions -c fish_prompt __shellenv_fish_prompt 2>/dev/null
function fish_prompt
    if set -q SHELLENV_ACTIVE
        echo -n (set_color green)"(shellenv)"(set_color normal)" "
    end
    __shellenv_fish_prompt
end
`

package core

// prompts.go defines the Spanish language prompts and notification texts used
// by the assistant.  Keeping these in a separate file makes them easy to
// tweak without touching the rest of the code.

const (
	// SystemInstructions seeds every new thread.  It forces the assistant to
	// answer report and booking requests with bare JSON in the function-call
	// format and to chat normally otherwise.
	SystemInstructions = "Eres Argo, un médico argentino experto del Centro de Entrenamiento Marangoni. " +
		"Si se te pide generar un informe pre/post con datos, responde EXCLUSIVAMENTE con un JSON " +
		"y NADA de texto adicional, en el siguiente formato:\n\n" +
		"{\n" +
		"  \"function_name\": \"generate_prepost_report\",\n" +
		"  \"arguments\": {\n" +
		"    \"patient_name\": \"NOMBRE\",\n" +
		"    \"patient_age\": 9,\n" +
		"    \"cognitive_results\": {\n" +
		"      \"Métrica 1\": {\"pre\": 0, \"post\": 0}\n" +
		"    }\n" +
		"  }\n" +
		"}\n\n" +
		"Si se te pide agendar un turno, responde EXCLUSIVAMENTE con un JSON en este formato:\n\n" +
		"{\n" +
		"  \"function_name\": \"schedule_appointment\",\n" +
		"  \"arguments\": {\n" +
		"    \"patient_name\": \"NOMBRE\",\n" +
		"    \"patient_whatsapp\": \"+5491123456789\",\n" +
		"    \"appointment_date\": \"YYYY-MM-DD\",\n" +
		"    \"appointment_time\": \"HH:MM\"\n" +
		"  }\n" +
		"}\n\n" +
		"NO añadas texto extra, disclaimers ni explicaciones. " +
		"En otras preguntas, responde normalmente con texto libre."

	// Greeting is the assistant's canned opening for a new thread.
	Greeting = "Hola, soy Argo. ¿En qué puedo ayudarte hoy?"

	// DefaultOpening replaces an empty first user message.
	DefaultOpening = "Hola, me explicarías de qué forma puedes ayudarme?"

	// NeedContactPrompt asks the user for a WhatsApp number when a first-time
	// booking arrives without one.
	NeedContactPrompt = "Para agendar el turno necesito un número de WhatsApp. ¿Me lo pasás, por favor?"

	// BadDateTimePrompt asks the user to restate an unparseable date or time.
	BadDateTimePrompt = "No pude entender la fecha y hora del turno. ¿Me la repetís? Por ejemplo: 2025-06-10 a las 15:00."

	// GenericErrorReply is returned when a command was understood but its
	// side effects failed for reasons the user cannot fix.
	GenericErrorReply = "Perdón, tuve un problema al procesar tu pedido. Probá de nuevo en unos minutos."
)

// Notification texts, one per reminder kind.
const (
	confirmationText = "¡Hola %s! Tu turno ha sido agendado correctamente. ¡Estamos emocionados de verte en el Centro de Entrenamiento Marangoni!"
	reminder24hText  = "Recordatorio: Hola %s, faltan 24 horas para tu turno. ¡Preparate y mantené esa energía positiva!"
	reminder3hText   = "¡Che, ya falta poco para tu turno, %s! Te esperamos en el Centro de Entrenamiento Marangoni. ¡No pierdas el impulso!"

	// confirmationReplyText is the chat answer after a successful booking.
	// The time placeholder is the local appointment time.
	confirmationReplyText = "Listo, %s: tu turno quedó agendado para el %s. Te van a llegar recordatorios por WhatsApp."

	// reportReadyText is the chat answer after a report was generated.
	reportReadyText = "¡Aquí tienes tu informe pre-post para %s (edad %d)!"
)

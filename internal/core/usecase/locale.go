package usecase

// understandingHeader is the section label the comprehension-check prompt
// asks the model to emit. It is the split point for per-section translation.
const understandingHeader = "UNDERSTANDING CHECK"

var understandingHeaders = map[string]string{
	"ru": "ПРОВЕРКА ПОНИМАНИЯ",
	"es": "COMPROBACIÓN DE COMPRENSIÓN",
	"fr": "VÉRIFICATION DE LA COMPRÉHENSION",
	"de": "VERSTÄNDNISPRÜFUNG",
}

// Static replies are pre-translated instead of going through the translation
// service: the generic error reply must work when that service is the thing
// that failed.
var genericErrorReplies = map[string]string{
	"en": "Sorry, something went wrong while preparing your answer. Please try again in a moment.",
	"ru": "Извините, при подготовке ответа произошла ошибка. Пожалуйста, попробуйте ещё раз чуть позже.",
	"es": "Lo siento, ocurrió un error al preparar la respuesta. Inténtalo de nuevo en un momento.",
	"fr": "Désolé, une erreur s'est produite lors de la préparation de la réponse. Veuillez réessayer dans un instant.",
	"de": "Entschuldigung, beim Erstellen der Antwort ist ein Fehler aufgetreten. Bitte versuchen Sie es gleich noch einmal.",
}

var welcomeReplies = map[string]string{
	"en": "Hello! I am the organization's knowledge assistant. Ask me about teams, processes, policies or resources, in any language.",
	"ru": "Здравствуйте! Я ассистент по знаниям организации. Спрашивайте о командах, процессах, правилах и ресурсах на любом языке.",
	"es": "¡Hola! Soy el asistente de conocimiento de la organización. Pregúntame sobre equipos, procesos, políticas o recursos, en cualquier idioma.",
	"fr": "Bonjour ! Je suis l'assistant de connaissances de l'organisation. Posez-moi vos questions sur les équipes, les processus, les règles ou les ressources, dans n'importe quelle langue.",
	"de": "Hallo! Ich bin der Wissensassistent der Organisation. Fragen Sie mich nach Teams, Prozessen, Richtlinien oder Ressourcen, in jeder Sprache.",
}

var resetReplies = map[string]string{
	"en": "Conversation history cleared. Ask me anything about the organization.",
	"ru": "История диалога очищена. Задайте любой вопрос об организации.",
	"es": "Historial de conversación borrado. Pregúntame lo que quieras sobre la organización.",
	"fr": "Historique de conversation effacé. Posez-moi vos questions sur l'organisation.",
	"de": "Gesprächsverlauf gelöscht. Stellen Sie mir Fragen zur Organisation.",
}

var helpReplies = map[string]string{
	"en": "I answer questions about the organization: teams, processes, policies and resources. Write in any language and I will reply in it. Use reset to start over.",
	"ru": "Я отвечаю на вопросы об организации: команды, процессы, правила и ресурсы. Пишите на любом языке, и я отвечу на нём. Команда reset начинает диалог заново.",
	"es": "Respondo preguntas sobre la organización: equipos, procesos, políticas y recursos. Escribe en cualquier idioma y responderé en él. Usa reset para empezar de nuevo.",
	"fr": "Je réponds aux questions sur l'organisation : équipes, processus, règles et ressources. Écrivez dans n'importe quelle langue et je répondrai dans celle-ci. Utilisez reset pour recommencer.",
	"de": "Ich beantworte Fragen zur Organisation: Teams, Prozesse, Richtlinien und Ressourcen. Schreiben Sie in einer beliebigen Sprache und ich antworte darin. Mit reset beginnen Sie von vorn.",
}

// DefaultFollowUps is the fixed pool one question is drawn from on every
// third turn.
var DefaultFollowUps = []string{
	"Would you like more detail on any part of that?",
	"Is there a related team or process you want me to explain?",
	"Should I point you to the source documents for this topic?",
	"Do you want a short summary of what we covered so far?",
	"Is there anything in the answer that was unclear?",
	"Would an example help here?",
	"Do you want to know who to contact about this?",
}

// localize picks the variant for lang, falling back to English.
func localize(variants map[string]string, lang string) string {
	if v, ok := variants[lang]; ok {
		return v
	}
	return variants["en"]
}
